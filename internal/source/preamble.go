// Package source assembles a vault into a single flat "mega-source"
// document suitable for bulk upload to a document-ingestion tool.
package source

// Preamble is the built-in instructional text prepended to the output
// document. It tells a downstream reader/AI tool how to navigate the
// concatenated source. A caller-supplied override replaces it wholesale.
const Preamble = `# AI NAVIGATION & BEHAVIOR RULES
1. This file is a 'mega-source' containing an entire Obsidian vault.
2. Every individual note starts with 'BEGIN SOURCE: [path]' and ends with 'END SOURCE: [path]'.
3. Always cite the specific 'BEGIN SOURCE' filename when providing information.
4. YAML frontmatter (between --- near the start of a source) contains valid metadata; prioritise it for dating and tagging.
5. At the end of the file is a table of contents, marked with BEGIN TABLE OF CONTENT and END TABLE OF CONTENT.
6. Use the table of contents to search for specific files and to cite the source for any answer created.
7. If a user asks for a 'summary of the vault', refer to the table of contents.
8. Files in the format YYYY-MM-DD.md are going to be daily note files; parse the name as a date and refer to it where possible.
`

// Document structure markers.
const (
	beginSourceMarker = "BEGIN SOURCE: "
	endSourceMarker   = "END SOURCE: "
	beginTOCMarker    = "BEGIN TABLE OF CONTENT"
	endTOCMarker      = "END TABLE OF CONTENT"

	additionalRulesHeading = "# ADDITIONAL RULES"
	sectionSeparator       = "---"
)
