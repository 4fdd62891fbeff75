package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"path"
	"strconv"
	"strings"
)

// groupedPicture is a picture found inside a drawing group shape.
type groupedPicture struct {
	row    int // 1-based anchor row
	col    int // 1-based anchor column
	target string
	data   []byte
}

// pictureRef is an intermediate drawing walk result.
type pictureRef struct {
	row   int
	col   int
	embed string
}

// readGroupedPictures walks the sheet's drawing part and returns pictures
// nested in group shapes, which excelize does not report. A workbook without
// drawings yields nothing.
func readGroupedPictures(ctx context.Context, data []byte, sheet string) ([]groupedPicture, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	drawingPath := getSheetDrawingMap(r)[sheet]
	if drawingPath == "" {
		return nil, nil
	}

	drawingXML, err := readZipFile(r, drawingPath)
	if err != nil || drawingXML == nil {
		return nil, err
	}
	refs := parseDrawingXML(drawingXML)
	if len(refs) == 0 {
		return nil, nil
	}

	relsXML, err := readZipFile(r, drawingRelsPath(drawingPath))
	if err != nil {
		return nil, err
	}
	rels := parseDrawingRels(relsXML)

	var result []groupedPicture
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target, ok := rels[ref.embed]
		if !ok {
			continue
		}
		mediaPath := resolveRelativePath(target, path.Dir(drawingPath))
		media, err := readZipFile(r, mediaPath)
		if err != nil {
			return nil, err
		}
		if len(media) == 0 {
			continue
		}
		result = append(result, groupedPicture{
			row:    ref.row,
			col:    ref.col,
			target: mediaPath,
			data:   media,
		})
	}
	return result, nil
}

// getSheetDrawingMap returns a mapping of sheet names to their drawing XML paths.
func getSheetDrawingMap(r *zip.Reader) map[string]string {
	result := make(map[string]string)

	workbookXML, err := readZipFile(r, "xl/workbook.xml")
	if err != nil || workbookXML == nil {
		return result
	}
	sheetsInfo := parseWorkbookSheets(workbookXML)
	if len(sheetsInfo) == 0 {
		return result
	}

	wbRelsXML, err := readZipFile(r, "xl/_rels/workbook.xml.rels")
	if err != nil || wbRelsXML == nil {
		return result
	}
	sheetFiles := parseWorkbookRels(wbRelsXML, sheetsInfo)

	for sheetName, sheetPath := range sheetFiles {
		relsPath := strings.Replace(sheetPath, "worksheets/", "worksheets/_rels/", 1)
		relsPath = strings.Replace(relsPath, ".xml", ".xml.rels", 1)

		sheetRelsXML, err := readZipFile(r, relsPath)
		if err != nil || sheetRelsXML == nil {
			continue
		}

		if drawingPath := findDrawingRelationship(sheetRelsXML); drawingPath != "" {
			result[sheetName] = resolveRelativePath(drawingPath, "xl/drawings")
		}
	}

	return result
}

// drawingRelsPath maps xl/drawings/drawing1.xml to xl/drawings/_rels/drawing1.xml.rels.
func drawingRelsPath(drawingPath string) string {
	return path.Join(path.Dir(drawingPath), "_rels", path.Base(drawingPath)+".rels")
}

// parseDrawingXML returns the grouped pictures of every cell-anchored element.
func parseDrawingXML(data []byte) []pictureRef {
	var results []pictureRef

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		if se, ok := token.(xml.StartElement); ok {
			switch se.Name.Local {
			case "twoCellAnchor", "oneCellAnchor":
				results = append(results, parseAnchor(decoder)...)
			}
		}
	}

	return results
}

// parseAnchor consumes one anchor element. Only pictures inside grpSp are
// returned; top-level pictures are left to excelize.
func parseAnchor(decoder *xml.Decoder) []pictureRef {
	var row, col int
	var embeds []string
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "from":
				col, row = parseMarker(decoder)
				depth--
			case "grpSp":
				embeds = append(embeds, parseGroupShape(decoder)...)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	results := make([]pictureRef, 0, len(embeds))
	for _, e := range embeds {
		results = append(results, pictureRef{row: row + 1, col: col + 1, embed: e})
	}
	return results
}

// parseMarker reads the zero-based col/row of an xdr:from element.
func parseMarker(decoder *xml.Decoder) (col, row int) {
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "col", "row":
				txt, err := readElementText(decoder)
				depth--
				if err != nil {
					continue
				}
				n, err := strconv.Atoi(strings.TrimSpace(txt))
				if err != nil {
					continue
				}
				if t.Name.Local == "col" {
					col = n
				} else {
					row = n
				}
			}
		case xml.EndElement:
			depth--
		}
	}
	return
}

// parseGroupShape collects the r:embed ids of every picture in a group,
// including nested groups.
func parseGroupShape(decoder *xml.Decoder) []string {
	var embeds []string
	inPic := 0
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "pic":
				inPic++
			case "blip":
				if inPic == 0 {
					continue
				}
				for _, attr := range t.Attr {
					if attr.Name.Local == "embed" && attr.Value != "" {
						embeds = append(embeds, attr.Value)
					}
				}
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "pic" && inPic > 0 {
				inPic--
			}
		}
	}

	return embeds
}

// parseDrawingRels maps relationship ids to targets.
func parseDrawingRels(data []byte) map[string]string {
	result := make(map[string]string)
	if data == nil {
		return result
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if rID != "" && target != "" {
				result[rID] = target
			}
		}
	}

	return result
}

// readZipFile returns the named part, or nil when the archive lacks it.
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

func readElementText(decoder *xml.Decoder) (string, error) {
	var text string
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return text, err
		}
		switch t := token.(type) {
		case xml.CharData:
			text += string(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text, nil
}

// resolveRelativePath turns a relationship target into a part name.
func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "../") {
		clean := target
		for strings.HasPrefix(clean, "../") {
			clean = strings.TrimPrefix(clean, "../")
		}
		return "xl/" + clean
	}
	if strings.HasPrefix(target, "/xl/") {
		return strings.TrimPrefix(target, "/")
	}
	if strings.HasPrefix(target, "/") {
		return baseDir + target
	}
	return baseDir + "/" + target
}

// parseWorkbookSheets maps relationship ids to sheet names.
func parseWorkbookSheets(data []byte) map[string]string {
	result := make(map[string]string) // rId -> sheet name
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var name, rID string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "name":
					name = attr.Value
				case "id":
					rID = attr.Value
				}
			}
			if name != "" && rID != "" {
				result[rID] = name
			}
		}
	}

	return result
}

// parseWorkbookRels maps sheet names to their worksheet parts.
func parseWorkbookRels(data []byte, sheetsInfo map[string]string) map[string]string {
	result := make(map[string]string) // sheet name -> file path
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if sheetName, ok := sheetsInfo[rID]; ok && strings.Contains(strings.ToLower(target), "worksheet") {
				result[sheetName] = resolveRelativePath(target, "xl")
			}
		}
	}

	return result
}

// findDrawingRelationship returns the target of the sheet's drawing relationship.
func findDrawingRelationship(data []byte) string {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var relType, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Type":
					relType = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if strings.HasSuffix(strings.ToLower(relType), "/drawing") {
				return target
			}
		}
	}

	return ""
}
