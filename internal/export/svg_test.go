package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/puttsim/internal/course"
	"github.com/san-kum/puttsim/internal/dynamo"
	"github.com/san-kum/puttsim/internal/viz"
)

func TestCourseSVG(t *testing.T) {
	crs, err := course.New("0.1*x", dynamo.Vec2{}, course.Target{Pos: dynamo.Vec2{X: 4, Z: 1}, Radius: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	path := []dynamo.Vec2{{X: 0, Z: 0}, {X: 1, Z: 0.3}, {X: 2.5, Z: 0.8}}

	opts := DefaultSVGOptions()
	opts.Cols, opts.Rows = 30, 15
	var sb strings.Builder
	if err := CourseSVG(&sb, crs, path, opts); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Fatal("not a complete svg document")
	}
	if !strings.Contains(out, `width="240" height="240"`) {
		t.Errorf("unexpected image size in %q", out[:200])
	}
	if strings.Count(out, " L") != len(path)-1 {
		t.Errorf("path has %d segments, want %d", strings.Count(out, " L"), len(path)-1)
	}
	if !strings.Contains(out, string(viz.ThemeLinks.Hole)) {
		t.Error("hole color missing")
	}
	if !strings.Contains(out, `fill="`+string(viz.ThemeLinks.Ball)+`"`) {
		t.Error("ball not drawn")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(1, 1)
	c.Set(0, 0, viz.LayerWall)
	c.Set(1, 3, viz.LayerWall)

	var sb strings.Builder
	CanvasToSVG(&sb, c, 2, viz.ThemeNight)
	if n := strings.Count(sb.String(), "<circle"); n != 2 {
		t.Errorf("got %d dots, want 2", n)
	}
	if !strings.Contains(sb.String(), string(viz.ThemeNight.Wall)) {
		t.Error("wall color missing")
	}

	sb.Reset()
	CanvasToSVG(&sb, nil, 2, viz.ThemeNight)
	if sb.Len() != 0 {
		t.Error("nil canvas should draw nothing")
	}
}

func TestWriteCourseSVG(t *testing.T) {
	crs, err := course.New("1", dynamo.Vec2{}, course.Target{Pos: dynamo.Vec2{X: 2}, Radius: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "run.svg")
	if err := WriteCourseSVG(out, crs, nil, DefaultSVGOptions()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "<path") {
		t.Error("empty path should not be drawn")
	}
}
