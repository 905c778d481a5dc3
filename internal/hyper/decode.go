package hyper

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/mitchellh/mapstructure"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"flowd/internal/plugin"
)

func toFloat(v any) (float64, error) {
	var f float64
	if err := mapstructure.WeakDecode(v, &f); err != nil {
		return 0, err
	}
	return f, nil
}

func toString(v any) (string, error) {
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("expected a string, got %T", v)
	}
	var s string
	if err := mapstructure.WeakDecode(v, &s); err != nil {
		return "", err
	}
	return s, nil
}

func toBool(v any) (bool, error) {
	var b bool
	if err := mapstructure.WeakDecode(v, &b); err != nil {
		return false, err
	}
	return b, nil
}

// DecodeImage decodes a base64 image, optionally wrapped in a data URL.
// PNG, JPEG, BMP and WebP are supported.
func DecodeImage(v any) (image.Image, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil, errors.New("expected a base64 encoded image")
	}
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return nil, errors.New("malformed data URL")
		}
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return img, nil
}

type markDoc struct {
	Type   string      `mapstructure:"type"`
	Data   []float64   `mapstructure:"data"`
	Points [][]float64 `mapstructure:"points"`
}

// decodeMarks turns the wire prompt list into marks. Points keep their
// coordinates; rectangles given as a point list collapse to an xyxy box.
func decodeMarks(v any) ([]plugin.Mark, error) {
	var docs []markDoc
	if err := mapstructure.WeakDecode(v, &docs); err != nil {
		return nil, err
	}
	marks := make([]plugin.Mark, 0, len(docs))
	for i, d := range docs {
		switch d.Type {
		case "point":
			data := d.Data
			if len(data) == 0 && len(d.Points) == 1 {
				data = d.Points[0]
			}
			if len(data) < 2 {
				return nil, fmt.Errorf("mark %d: point needs x and y", i)
			}
			marks = append(marks, plugin.Mark{Type: "point", Data: data[:2]})
		case "rectangle":
			data := d.Data
			if len(data) == 0 {
				box, err := bbox(d.Points)
				if err != nil {
					return nil, fmt.Errorf("mark %d: %w", i, err)
				}
				data = box
			}
			if len(data) != 4 {
				return nil, fmt.Errorf("mark %d: rectangle needs 4 coordinates", i)
			}
			marks = append(marks, plugin.Mark{Type: "rectangle", Data: data})
		default:
			return nil, fmt.Errorf("mark %d: unsupported type %q", i, d.Type)
		}
	}
	return marks, nil
}

func bbox(pts [][]float64) ([]float64, error) {
	if len(pts) < 2 {
		return nil, errors.New("rectangle needs at least two points")
	}
	for _, p := range pts {
		if len(p) < 2 {
			return nil, errors.New("point needs x and y")
		}
	}
	x1, y1, x2, y2 := pts[0][0], pts[0][1], pts[0][0], pts[0][1]
	for _, p := range pts[1:] {
		x1, y1 = min(x1, p[0]), min(y1, p[1])
		x2, y2 = max(x2, p[0]), max(y2, p[1])
	}
	return []float64{x1, y1, x2, y2}, nil
}
