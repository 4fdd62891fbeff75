package images

import (
	"fmt"
	"strings"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// SuggestedFilename names an image for the storage collaborator as
// {sourceID}_{cellRef}_{role}.{ext}.
func SuggestedFilename(sourceID string, anchor models.Pos, role models.ImageRole, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s_%s_%s.%s", sourceID, cellRef(anchor), role, ext)
}

// AssignFilenames sets Filename on every image. Names that would collide
// (several pictures in one cell) get a "-2", "-3", ... suffix in order.
func AssignFilenames(sourceID string, imgs []models.ProductImage) {
	used := make(map[string]int, len(imgs))
	for i := range imgs {
		img := &imgs[i]
		name := SuggestedFilename(sourceID, img.Anchor, img.Role, img.Extension)
		used[name]++
		if n := used[name]; n > 1 {
			dot := strings.LastIndexByte(name, '.')
			name = fmt.Sprintf("%s-%d%s", name[:dot], n, name[dot:])
		}
		img.Filename = name
	}
}
