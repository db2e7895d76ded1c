package sceneview

import (
	"errors"
	"image"
	"testing"

	"github.com/Yeicor/sceneview/internal/raster"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callstackFor(v *Viewer, req frameRequest) []string {
	if req.target == nil {
		req.target = v.target
	}
	if req.viewport.Empty() {
		req.viewport = image.Rect(0, 0, v.target.Width(), v.target.Height())
	}
	rc := v.newRenderingContext(req)
	v.buildCallstack(rc)
	return rc.passNames()
}

func TestCallstackComposition(t *testing.T) {
	tests := []struct {
		name    string
		caps    Capabilities
		options []Option
		req     frameRequest
		expect  []string
	}{
		{
			name:   "defaults",
			expect: []string{"initialise", "layers", "background", "modelview", "projection", "scene"},
		},
		{
			name:   "double buffered",
			caps:   Capabilities{DoubleBuffer: true},
			expect: []string{"fast-change", "initialise", "layers", "background", "modelview", "projection", "scene"},
		},
		{
			name:   "double buffered offscreen",
			caps:   Capabilities{DoubleBuffer: true},
			req:    frameRequest{offscreen: true},
			expect: []string{"initialise", "layers", "background", "modelview", "projection", "scene"},
		},
		{
			name:   "capture",
			req:    frameRequest{capture: image.NewNRGBA(image.Rect(0, 0, 8, 8))},
			expect: []string{"readback", "initialise", "layers", "background", "modelview", "projection", "scene"},
		},
		{
			name:    "antialias and depth of field",
			caps:    Capabilities{Accumulation: true},
			options: []Option{OptAntialias(4), func(v *Viewer) { _ = v.SetDepthOfField(2, 0) }},
			expect:  []string{"initialise", "antialias", "depth-of-field", "layers", "background", "modelview", "projection", "scene"},
		},
		{
			name:    "stereo with slow transparency",
			caps:    Capabilities{Stereo: true},
			options: []Option{OptStereo(0.25), OptTransparency(TransparencySlow, 1)},
			expect:  []string{"initialise", "layers", "background", "modelview", "stereo", "slow-transparency", "projection", "scene"},
		},
		{
			name:    "layered transparency",
			options: []Option{OptTransparency(TransparencyLayered, 4)},
			expect:  []string{"initialise", "layers", "background", "modelview", "layered-transparency", "projection", "scene"},
		},
		{
			name:    "order independent transparency",
			options: []Option{OptDepthPeeling(), OptTransparency(TransparencyOrderIndependent, 4)},
			expect:  []string{"initialise", "layers", "background", "modelview", "order-independent-transparency", "projection", "scene"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, _, _ := newTestViewer(t, 8, 8, tc.caps, nil, tc.options...)
			assert.Equal(t, tc.expect, callstackFor(v, tc.req))
		})
	}
}

func TestAntialiasOverrideAddsThePass(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	assert.Contains(t, callstackFor(v, frameRequest{antialias: 2}), "antialias")
}

func TestFailingPassIsSkipped(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	rc := v.newRenderingContext(frameRequest{target: v.target, viewport: image.Rect(0, 0, 8, 8)})
	var ran []string
	rc.stack = []renderPass{
		{"outer", func(rc *RenderingContext) error {
			ran = append(ran, "outer")
			return rc.CallNextRenderer()
		}},
		{"broken", func(rc *RenderingContext) error {
			ran = append(ran, "broken")
			return errors.New("broken pass")
		}},
		{"inner", func(rc *RenderingContext) error {
			ran = append(ran, "inner")
			return nil
		}},
	}
	rc.entered = make([]int, len(rc.stack)+1)
	require.NoError(t, rc.CallNextRenderer())
	assert.Equal(t, []string{"outer", "broken", "inner"}, ran)
	assert.Equal(t, 0, rc.depth)
}

func TestPassFailingAfterTheRestRanIsNotRepeated(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	rc := v.newRenderingContext(frameRequest{target: v.target, viewport: image.Rect(0, 0, 8, 8)})
	inner := 0
	rc.stack = []renderPass{
		{"teardown fails", func(rc *RenderingContext) error {
			if err := rc.CallNextRenderer(); err != nil {
				return err
			}
			return errors.New("teardown")
		}},
		{"inner", func(rc *RenderingContext) error {
			inner++
			return nil
		}},
	}
	rc.entered = make([]int, len(rc.stack)+1)
	require.NoError(t, rc.CallNextRenderer())
	assert.Equal(t, 1, inner)
}

func TestInnerErrorsPropagate(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	rc := v.newRenderingContext(frameRequest{target: v.target, viewport: image.Rect(0, 0, 8, 8)})
	boom := errors.New("boom")
	rc.stack = []renderPass{
		{"outer", func(rc *RenderingContext) error { return rc.CallNextRenderer() }},
		{"last", func(rc *RenderingContext) error { return boom }},
	}
	rc.entered = make([]int, len(rc.stack)+1)
	// the failing pass is skipped but there is nothing left to run
	require.NoError(t, rc.CallNextRenderer())
}

func TestRenderIsNotReentrant(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	var inner error
	v.OnSync(func(v *Viewer) {
		if inner == nil {
			inner = v.RenderScene()
		}
	})
	require.NoError(t, v.RenderScene())
	assert.ErrorIs(t, inner, ErrInconsistentState)
	assert.ErrorIs(t, inner, errRenderInProgress)
}

func TestRenderSceneInViewportValidation(t *testing.T) {
	v, _, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	assert.ErrorIs(t, v.RenderSceneInViewport(4, 0, 4, 8), ErrInvalidArgument)
	assert.ErrorIs(t, v.RenderSceneInViewport(0, 8, 8, 0), ErrInvalidArgument)
}

func TestRenderSceneInViewportOnlyTouchesTheViewport(t *testing.T) {
	v, host, _ := newTestViewer(t, 8, 8, Capabilities{}, nil)
	v.SetBackgroundColour(mgl64.Vec4{1, 1, 1, 1})
	// left half, bottom-left origin
	require.NoError(t, v.RenderSceneInViewport(0, 0, 4, 8))
	v.SetBackgroundColour(mgl64.Vec4{0, 0, 1, 1})
	require.NoError(t, v.RenderSceneInViewport(4, 0, 8, 8))
	frame := host.Frame()
	assert.Equal(t, uint8(255), frame.NRGBAAt(1, 4).R, "left half keeps the first clear")
	assert.Equal(t, uint8(0), frame.NRGBAAt(6, 4).R)
	assert.Equal(t, uint8(255), frame.NRGBAAt(6, 4).B)
}

func TestEveryFrameReselectsTheRenderingTier(t *testing.T) {
	v, host, _ := newTestViewer(t, 8, 8, Capabilities{DisplayLists: true}, nil)
	assert.Equal(t, raster.TierDisplayList, v.backend.Tier())
	host.caps = Capabilities{VertexBuffers: true}
	require.NoError(t, v.RenderScene())
	assert.Equal(t, raster.TierVertexBuffer, v.backend.Tier())
	host.caps = Capabilities{}
	require.NoError(t, v.RenderScene())
	assert.Equal(t, raster.TierImmediate, v.backend.Tier())
}
