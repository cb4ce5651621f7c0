// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

// sectionMarkers promote a narrative line to a subheading. Longest first.
var sectionMarkers = []string{"### ", "## "}

// docBlock is one rendered WordprocessingML paragraph.
type docBlock struct {
	style string   // paragraph style id; empty for body text
	lines []string // one run per line, joined by line breaks
	label string   // optional bold lead-in run
}

// renderDocument writes a minimal DOCX package: a title, the industry line,
// then a Heading1 per narrative with its body split into paragraphs.
func renderDocument(narratives []types.NarrativeText, meta Meta) ([]byte, error) {
	blocks := []docBlock{
		{style: "Title", lines: []string{"GenAI & ML Use Cases for " + meta.EntityName}},
		{label: "Industry: ", lines: []string{meta.Domain}},
	}
	for _, n := range narratives {
		heading := strings.TrimSpace(n.SourceCategory)
		if heading == "" {
			heading = "Narrative"
		}
		blocks = append(blocks, docBlock{style: "Heading1", lines: []string{heading}})
		blocks = append(blocks, narrativeBlocks(n.Body)...)
	}

	var body bytes.Buffer
	for _, b := range blocks {
		writeParagraph(&body, b)
	}

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/_rels/document.xml.rels", docxDocumentRels},
		{"word/document.xml", docxDocumentHead + body.String() + docxDocumentTail},
		{"word/styles.xml", docxStyles},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// narrativeBlocks splits body into paragraphs on blank lines. Lines that
// start with a section marker become Heading2 paragraphs with the marker
// stripped; the remaining lines of a paragraph stay together as runs.
func narrativeBlocks(body string) []docBlock {
	var out []docBlock
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			out = append(out, docBlock{lines: pending})
			pending = nil
		}
	}

	body = strings.ReplaceAll(body, "\r\n", "\n")
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if heading, ok := sectionHeading(trimmed); ok {
			flush()
			out = append(out, docBlock{style: "Heading2", lines: []string{heading}})
			continue
		}
		pending = append(pending, trimmed)
	}
	flush()
	return out
}

func sectionHeading(line string) (string, bool) {
	for _, m := range sectionMarkers {
		if strings.HasPrefix(line, m) {
			if h := strings.TrimSpace(strings.TrimPrefix(line, m)); h != "" {
				return h, true
			}
		}
	}
	return "", false
}

func writeParagraph(buf *bytes.Buffer, b docBlock) {
	buf.WriteString("<w:p>")
	if b.style != "" {
		fmt.Fprintf(buf, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, b.style)
	}
	if b.label != "" {
		buf.WriteString(`<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
		xml.EscapeText(buf, []byte(b.label))
		buf.WriteString("</w:t></w:r>")
	}
	for i, line := range b.lines {
		buf.WriteString("<w:r>")
		if i > 0 {
			buf.WriteString("<w:br/>")
		}
		buf.WriteString(`<w:t xml:space="preserve">`)
		xml.EscapeText(buf, []byte(line))
		buf.WriteString("</w:t></w:r>")
	}
	buf.WriteString("</w:p>")
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

const docxDocumentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docxDocumentTail = `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr></w:body></w:document>`

const docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="22"/></w:rPr></w:rPrDefault><w:pPrDefault><w:pPr><w:spacing w:after="160" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults><w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style><w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:spacing w:after="240"/></w:pPr><w:rPr><w:b/><w:sz w:val="48"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="360" w:after="120"/><w:outlineLvl w:val="0"/></w:pPr><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style><w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240" w:after="80"/><w:outlineLvl w:val="1"/></w:pPr><w:rPr><w:b/><w:sz w:val="26"/></w:rPr></w:style></w:styles>`
