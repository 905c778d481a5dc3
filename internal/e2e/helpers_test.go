package e2e

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"flowd/internal/catalog"
	"flowd/internal/httpapi"
	"flowd/internal/manager"
	"flowd/internal/plugins"
	"flowd/internal/session"
	"flowd/internal/weights"
)

// gradient draws a deterministic test image; seed shifts the pattern.
func gradient(seed int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8((x*8 + y*seed) % 256)
			img.Set(x, y, color.RGBA{R: v, G: 255 - v, B: uint8(seed * 40), A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func dataURL(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

type env struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	mgr    *manager.Manager
}

// newEnv starts a server over the built-in plugins with a catalog whose
// "reference" weight is refPNG written to a temp dir.
func newEnv(t *testing.T, refPNG []byte) *env {
	t.Helper()
	dir := t.TempDir()
	ref := filepath.Join(dir, "ref.png")
	if err := os.WriteFile(ref, refPNG, 0o644); err != nil {
		t.Fatalf("write reference: %v", err)
	}
	doc := strings.ReplaceAll(`
categories:
  vision:
    quality: [pixel_analysis]
weights:
  - {name: ref-card, local: REF}
  - {name: ref-missing, local: /nonexistent/ref.png}
revisions:
  - type: pixel_analysis
    name: v1
    display_name: Pixel v1
    params: {saturation_threshold: 100}
  - type: pixel_analysis
    name: reference
    display_name: Pixel reference
    weights: {reference: [ref-card, ref-missing]}
    params: {hash_threshold: 5}
`, "REF", ref)

	reg, err := plugins.Builtin()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cat, err := catalog.Parse([]byte(doc), "yaml", catalog.WithRegistry(reg))
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(cat.Skipped) != 0 {
		t.Fatalf("unexpected skipped entries: %v", cat.Skipped)
	}
	mgr, err := manager.New(manager.Config{
		Catalog:  cat,
		Registry: reg,
		Sessions: session.NewMemoryStore(0),
		Weights:  weights.New(filepath.Join(dir, "cache"), weights.WithLogger(zerolog.Nop())),
		Logger:   zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	jar, _ := cookiejar.New(nil)
	return &env{t: t, srv: srv, client: &http.Client{Jar: jar}, mgr: mgr}
}

// do sends a JSON request and decodes a JSON response into out when given.
func (e *env) do(method, path string, body any, out any) int {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	if err != nil {
		e.t.Fatalf("new req: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			e.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode
}
