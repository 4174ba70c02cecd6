package mcpserver

// NoteFormatContract describes the note format that LLM consumers should
// follow when creating notes.
const NoteFormatContract = `# PulpitGraph Note Format Contract

Notes are Markdown documents filed in a folder tree. A note's **path** is its
folder names plus its title, joined with "/" (e.g. ` + "`" + `Sermons/Series: Genesis/Creation` + "`" + `).

## Structure

` + "```" + `markdown
# Sermon title

Introduction paragraph.

## First point

> **John 3:16**
> For God so loved the world...

See also [[The Grace of God]] and [[Sermons/Hope|the Advent sermon]].
` + "```" + `

## Rules

1. **Title** is stored separately from the content; start the body with the
   same title as an ` + "`" + `#` + "`" + ` heading.
2. **Headings** split the note into pulpit-mode sections. Each ` + "`" + `#` + "`" + ` to
   ` + "`" + `######` + "`" + ` heading line starts a new section.
3. **Wikilinks** use double brackets: ` + "`" + `[[Target]]` + "`" + ` or ` + "`" + `[[Target|label]]` + "`" + `. The
   target is a note path or title; it resolves by exact path, then by a title
   carried by exactly one note, then by path suffix. Unresolved links are kept
   but do not appear in the knowledge graph.
4. **Verse quotes** use a blockquote with the bold reference on the first line.
5. **Tags** are inline ` + "`" + `#tag` + "`" + ` words (no space after ` + "`" + `#` + "`" + `) or a ` + "`" + `tags` + "`" + ` list in
   optional YAML front matter delimited by ` + "`" + `---` + "`" + ` lines.
6. **No HTML**; it is not rendered.
7. Line breaks inside a paragraph are kept as hard breaks.

## Example

` + "```" + `markdown
# Hope that does not disappoint

#advent #hope

## Context

Paul writes to the church in Rome.

> **Romans 5:5**
> Hope does not put us to shame.

## Application

Compare with [[The Grace of God]].
` + "```" + `
`
