package parser_test

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"legalreview/internal/parser"
)

func writeFile(dir, name string, content []byte) string {
	p := filepath.Join(dir, name)
	Expect(os.WriteFile(p, content, 0o644)).To(Succeed())
	return p
}

func writeDOCX(dir, name string, entries map[string]string) string {
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	Expect(err).NotTo(HaveOccurred())

	zw := zip.NewWriter(f)
	for entry, body := range entries {
		w, err := zw.Create(entry)
		Expect(err).NotTo(HaveOccurred())
		_, err = w.Write([]byte(body))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(zw.Close()).To(Succeed())
	Expect(f.Close()).To(Succeed())
	return p
}

// writePDF lays out a minimal PDF with one Helvetica text line per page and
// an Info dictionary carrying title.
func writePDF(dir, name, title string, pages ...string) string {
	n := len(pages)
	fontObj := 3 + 2*n
	infoObj := fontObj + 1

	objects := make([]string, infoObj)
	objects[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	kids := make([]string, n)
	for i, text := range pages {
		pageObj, contentObj := 3+2*i, 4+2*i
		kids[i] = fmt.Sprintf("%d 0 R", pageObj)
		objects[pageObj-1] = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, contentObj)
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects[contentObj-1] = fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n)
	objects[fontObj-1] = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	objects[infoObj-1] = fmt.Sprintf("<< /Title (%s) /Producer (legalreview) >>", title)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, infoObj, xref)

	return writeFile(dir, name, buf.Bytes())
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>MASTER SERVICES AGREEMENT</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Effective </w:t></w:r><w:r><w:t>1 March 2024</w:t></w:r></w:p>
    <w:p></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Party</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t> Role </w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Acme Ltd</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Supplier</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p/></w:tc>
        <w:tc><w:p/></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

const coreXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
  <dc:title>MSA</dc:title>
  <dc:creator>Legal Team</dc:creator>
  <dcterms:created>2024-03-01T10:00:00Z</dcterms:created>
</cp:coreProperties>`

var _ = Describe("Parser", func() {
	var (
		dir string
		p   *parser.Parser
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		p = parser.New(zap.NewNop().Sugar())
	})

	It("rejects missing files", func() {
		_, err := p.Parse(filepath.Join(dir, "nope.txt"))
		var perr *parser.Error
		Expect(err).To(BeAssignableToTypeOf(perr))
		Expect(err.Error()).To(ContainSubstring("File not found"))
	})

	It("rejects unsupported extensions", func() {
		path := writeFile(dir, "contract.rtf", []byte("{\\rtf1}"))
		_, err := p.Parse(path)
		Expect(err).To(MatchError(parser.ErrUnsupportedType))
	})

	It("reports supported extensions case-insensitively", func() {
		Expect(parser.Supported(".PDF")).To(BeTrue())
		Expect(parser.Supported(".htm")).To(BeTrue())
		Expect(parser.Supported(".doc")).To(BeFalse())
	})

	Describe("plain text", func() {
		It("reads utf-8 and adds common metadata", func() {
			path := writeFile(dir, "lease.txt", []byte("  This lease is made\nbetween Alice and Bob.  \n"))

			result, err := p.Parse(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("This lease is made\nbetween Alice and Bob."))
			Expect(result.Metadata).To(HaveKeyWithValue("encoding", "utf-8"))
			Expect(result.Metadata).To(HaveKeyWithValue("line_count", 2))
			Expect(result.Metadata).To(HaveKeyWithValue("word_count", 8))
			Expect(result.Metadata).To(HaveKeyWithValue("text_length", 41))
			Expect(result.Metadata).To(HaveKeyWithValue("file_type", ".txt"))
			Expect(result.Metadata).To(HaveKeyWithValue("file_size", int64(46)))
		})

		It("falls back to latin-1", func() {
			path := writeFile(dir, "latin.txt", []byte{'c', 'a', 'f', 0xe9})

			result, err := p.Parse(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("café"))
			Expect(result.Metadata).To(HaveKeyWithValue("encoding", "latin-1"))
		})

		It("uses cp1252 for smart quotes", func() {
			path := writeFile(dir, "quotes.txt", []byte{0x93, 'h', 'i', 0x94})

			result, err := p.Parse(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("“hi”"))
			Expect(result.Metadata).To(HaveKeyWithValue("encoding", "cp1252"))
		})

		It("stays latin-1 when the only C1 bytes are unassigned in cp1252", func() {
			path := writeFile(dir, "c1.txt", []byte("caf\xe9 \x81\x8d\x8f\x90\x9d"))

			result, err := p.Parse(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(HavePrefix("café"))
			Expect(result.Metadata).To(HaveKeyWithValue("encoding", "latin-1"))
		})

		It("fails on blank files", func() {
			path := writeFile(dir, "blank.txt", []byte(" \n\t "))
			_, err := p.Parse(path)
			Expect(err).To(MatchError(parser.ErrNoText))
		})
	})

	Describe("HTML", func() {
		It("drops scripts and styles and counts structure", func() {
			html := `<html><head><title> Share Purchase </title><style>p{color:red}</style>
<script>var secret = 1;</script></head>
<body><h1>Agreement</h1><p>The buyer shall pay.</p><p>Closing occurs on signing.</p>
<ul><li>One</li></ul><table><tr><td>Price</td></tr></table></body></html>`
			path := writeFile(dir, "spa.html", []byte(html))

			result, err := p.Parse(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(ContainSubstring("The buyer shall pay."))
			Expect(result.Text).To(ContainSubstring("Closing occurs on signing."))
			Expect(result.Text).NotTo(ContainSubstring("secret"))
			Expect(result.Text).NotTo(ContainSubstring("color:red"))
			Expect(result.Text).NotTo(ContainSubstring("\n\n"))
			Expect(result.Metadata).To(HaveKeyWithValue("title", "Share Purchase"))
			Expect(result.Metadata).To(HaveKeyWithValue("html_structure", map[string]any{
				"headings":   1,
				"paragraphs": 2,
				"tables":     1,
				"lists":      1,
			}))
		})

		It("fails when nothing readable remains", func() {
			path := writeFile(dir, "empty.htm", []byte(`<html><script>x()</script></html>`))
			_, err := p.Parse(path)
			Expect(err).To(MatchError(parser.ErrNoText))
		})
	})

	Describe("DOCX", func() {
		It("reads paragraphs then table rows", func() {
			path := writeDOCX(dir, "msa.docx", map[string]string{
				"word/document.xml": documentXML,
				"docProps/core.xml": coreXML,
			})

			result, err := p.Parse(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(Equal("MASTER SERVICES AGREEMENT\nEffective 1 March 2024\nParty | Role\nAcme Ltd | Supplier"))
			Expect(result.Metadata).To(HaveKeyWithValue("paragraph_count", 2))
			Expect(result.Metadata).To(HaveKeyWithValue("table_count", 1))
			Expect(result.Metadata).To(HaveKeyWithValue("docx_metadata", map[string]any{
				"author":   "Legal Team",
				"created":  "2024-03-01T10:00:00Z",
				"modified": nil,
				"title":    "MSA",
				"subject":  nil,
			}))
		})

		It("fails on archives without a document part", func() {
			path := writeDOCX(dir, "broken.docx", map[string]string{"other.xml": "<x/>"})
			_, err := p.Parse(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("word/document.xml"))
		})

		It("fails on files that are not zip archives", func() {
			path := writeFile(dir, "fake.docx", []byte("plain text"))
			_, err := p.Parse(path)
			Expect(err.Error()).To(HavePrefix("Failed to parse DOCX"))
		})
	})

	Describe("PDF", func() {
		It("marks pages and reads the document info", func() {
			path := writePDF(dir, "nda.pdf", "Mutual NDA",
				"Mutual Non-Disclosure Agreement", "Governing law: England and Wales")

			result, err := p.Parse(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Text).To(HavePrefix("[PAGE 1]"))
			Expect(result.Text).To(ContainSubstring("Mutual Non-Disclosure Agreement"))
			Expect(result.Text).To(ContainSubstring("[PAGE 2]"))
			Expect(result.Text).To(ContainSubstring("Governing law: England and Wales"))
			Expect(strings.Index(result.Text, "[PAGE 1]")).To(BeNumerically("<", strings.Index(result.Text, "[PAGE 2]")))

			Expect(result.Metadata).To(HaveKeyWithValue("page_count", 2))
			Expect(result.Metadata).To(HaveKeyWithValue("file_type", ".pdf"))
			Expect(result.Metadata).To(HaveKey("pdf_metadata"))
			info, ok := result.Metadata["pdf_metadata"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(info).To(HaveKeyWithValue("title", "Mutual NDA"))
			Expect(info).To(HaveKeyWithValue("producer", "legalreview"))
			Expect(info).To(HaveKeyWithValue("author", BeNil()))
		})

		It("rejects corrupted files", func() {
			path := writeFile(dir, "bad.pdf", []byte("not a pdf at all"))
			_, err := p.Parse(path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(HavePrefix("Invalid or corrupted PDF file"))
		})
	})
})
