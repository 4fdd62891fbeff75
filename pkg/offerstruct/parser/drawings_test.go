package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
)

const groupedDrawingXML = `<?xml version="1.0" encoding="UTF-8"?>
<xdr:wsDr xmlns:xdr="http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <xdr:twoCellAnchor>
    <xdr:from><xdr:col>0</xdr:col><xdr:colOff>0</xdr:colOff><xdr:row>3</xdr:row><xdr:rowOff>0</xdr:rowOff></xdr:from>
    <xdr:to><xdr:col>1</xdr:col><xdr:colOff>0</xdr:colOff><xdr:row>5</xdr:row><xdr:rowOff>0</xdr:rowOff></xdr:to>
    <xdr:pic><xdr:blipFill><a:blip r:embed="rId9"/></xdr:blipFill></xdr:pic>
    <xdr:clientData/>
  </xdr:twoCellAnchor>
  <xdr:twoCellAnchor>
    <xdr:from><xdr:col>2</xdr:col><xdr:colOff>0</xdr:colOff><xdr:row>6</xdr:row><xdr:rowOff>0</xdr:rowOff></xdr:from>
    <xdr:to><xdr:col>3</xdr:col><xdr:colOff>0</xdr:colOff><xdr:row>8</xdr:row><xdr:rowOff>0</xdr:rowOff></xdr:to>
    <xdr:grpSp>
      <xdr:nvGrpSpPr><xdr:cNvPr id="2" name="Group 1"/></xdr:nvGrpSpPr>
      <xdr:pic><xdr:blipFill><a:blip r:embed="rId1"/></xdr:blipFill></xdr:pic>
      <xdr:grpSp>
        <xdr:pic><xdr:blipFill><a:blip r:embed="rId2"/></xdr:blipFill></xdr:pic>
      </xdr:grpSp>
      <xdr:sp><xdr:spPr><a:blipFill><a:blip r:embed="rId3"/></a:blipFill></xdr:spPr></xdr:sp>
    </xdr:grpSp>
    <xdr:clientData/>
  </xdr:twoCellAnchor>
</xdr:wsDr>`

func TestParseDrawingXML(t *testing.T) {
	refs := parseDrawingXML([]byte(groupedDrawingXML))

	expected := []pictureRef{
		{row: 7, col: 3, embed: "rId1"},
		{row: 7, col: 3, embed: "rId2"},
	}
	if len(refs) != len(expected) {
		t.Fatalf("parseDrawingXML returned %d refs, expected %d: %+v", len(refs), len(expected), refs)
	}
	for i, ref := range refs {
		if ref != expected[i] {
			t.Errorf("ref %d = %+v, expected %+v", i, ref, expected[i])
		}
	}
}

func TestReadGroupedPictures(t *testing.T) {
	media := []byte("\x89PNG fake payload")
	data := buildZip(t, map[string]string{
		"xl/workbook.xml": `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheets><sheet name="Offer" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships>
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`,
		"xl/worksheets/_rels/sheet1.xml.rels": `<Relationships>
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/drawing" Target="../drawings/drawing1.xml"/>
</Relationships>`,
		"xl/drawings/drawing1.xml": groupedDrawingXML,
		"xl/drawings/_rels/drawing1.xml.rels": `<Relationships>
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/missing.png"/>
</Relationships>`,
		"xl/media/image1.png": string(media),
	})

	pics, err := readGroupedPictures(context.Background(), data, "Offer")
	if err != nil {
		t.Fatalf("readGroupedPictures failed: %v", err)
	}
	if len(pics) != 1 {
		t.Fatalf("expected 1 picture, got %d", len(pics))
	}
	got := pics[0]
	if got.row != 7 || got.col != 3 {
		t.Errorf("anchor = (%d,%d), expected (7,3)", got.row, got.col)
	}
	if got.target != "xl/media/image1.png" {
		t.Errorf("target = %q", got.target)
	}
	if !bytes.Equal(got.data, media) {
		t.Errorf("payload mismatch")
	}

	pics, err = readGroupedPictures(context.Background(), data, "Other")
	if err != nil || len(pics) != 0 {
		t.Errorf("unknown sheet: got %v, %v", pics, err)
	}
}

func TestDrawingRelsPath(t *testing.T) {
	tests := []struct {
		drawing  string
		expected string
	}{
		{"xl/drawings/drawing1.xml", "xl/drawings/_rels/drawing1.xml.rels"},
		{"xl/drawings/drawing12.xml", "xl/drawings/_rels/drawing12.xml.rels"},
	}

	for _, tt := range tests {
		if result := drawingRelsPath(tt.drawing); result != tt.expected {
			t.Errorf("drawingRelsPath(%q) = %q, expected %q", tt.drawing, result, tt.expected)
		}
	}
}

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		target   string
		baseDir  string
		expected string
	}{
		{"../media/image1.png", "xl/drawings", "xl/media/image1.png"},
		{"/xl/media/image2.jpeg", "xl/drawings", "xl/media/image2.jpeg"},
		{"/drawing1.xml", "xl/drawings", "xl/drawings/drawing1.xml"},
		{"drawing1.xml", "xl/drawings", "xl/drawings/drawing1.xml"},
		{"worksheets/sheet1.xml", "xl", "xl/worksheets/sheet1.xml"},
	}

	for _, tt := range tests {
		result := resolveRelativePath(tt.target, tt.baseDir)
		if result != tt.expected {
			t.Errorf("resolveRelativePath(%q, %q) = %q, expected %q",
				tt.target, tt.baseDir, result, tt.expected)
		}
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
