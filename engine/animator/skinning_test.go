package animator

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

func TestPrepareSkinningIdentityRoundTrip(t *testing.T) {
	s := armSkeleton(t)
	locals := s.RestPose()
	locals[0].Rotation = mgl32.QuatRotate(0.6, mgl32.Vec3{1, 0, 0})
	_, models := evaluated(t, s, locals)

	invBind := make([]mgl32.Mat4, len(models))
	for i, m := range models {
		invBind[i] = m.Inv()
	}
	remap := []int32{0, 1, 2}
	palette := make([]mgl32.Mat4, 3)
	if err := PrepareSkinning(models, remap, invBind, palette); err != nil {
		t.Fatalf("PrepareSkinning: %v", err)
	}
	for k, m := range palette {
		if !matApprox(m, mgl32.Ident4(), 1e-5) {
			t.Errorf("palette[%d] = %v, want identity", k, m)
		}
	}
}

func TestInverseBindMatricesOfRestPose(t *testing.T) {
	s := armSkeleton(t)
	_, models := evaluated(t, s, s.RestPose())

	palette := make([]mgl32.Mat4, 3)
	if err := PrepareSkinning(models, []int32{0, 1, 2}, InverseBindMatrices(s), palette); err != nil {
		t.Fatalf("PrepareSkinning: %v", err)
	}
	for k, m := range palette {
		if !matApprox(m, mgl32.Ident4(), 1e-5) {
			t.Errorf("palette[%d] = %v, want identity", k, m)
		}
	}
}

func TestPrepareSkinningRemap(t *testing.T) {
	models := []mgl32.Mat4{mgl32.Translate3D(1, 0, 0), mgl32.Translate3D(0, 2, 0)}
	palette := make([]mgl32.Mat4, 2)
	if err := PrepareSkinning(models, []int32{1, 1}, []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(0, 0, 3)}, palette); err != nil {
		t.Fatalf("PrepareSkinning: %v", err)
	}
	if got := position(palette[0]); got != (mgl32.Vec3{0, 2, 0}) {
		t.Errorf("palette[0] translation = %v, want {0 2 0}", got)
	}
	if got := position(palette[1]); got != (mgl32.Vec3{0, 2, 3}) {
		t.Errorf("palette[1] translation = %v, want {0 2 3}", got)
	}
}

func TestPrepareSkinningRejectsBadSkin(t *testing.T) {
	models := []mgl32.Mat4{mgl32.Ident4()}
	cases := map[string]struct {
		remap   []int32
		invBind []mgl32.Mat4
		out     int
	}{
		"length mismatch": {remap: []int32{0, 0}, invBind: []mgl32.Mat4{mgl32.Ident4()}, out: 2},
		"out too short":   {remap: []int32{0}, invBind: []mgl32.Mat4{mgl32.Ident4()}, out: 0},
		"joint missing":   {remap: []int32{4}, invBind: []mgl32.Mat4{mgl32.Ident4()}, out: 1},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			err := PrepareSkinning(models, c.remap, c.invBind, make([]mgl32.Mat4, c.out))
			if !errors.Is(err, common.ErrInvalidSkin) {
				t.Errorf("err = %v, want ErrInvalidSkin", err)
			}
		})
	}
}

func TestMarshalPalette(t *testing.T) {
	palette := []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(1, 2, 3)}
	buf := MarshalPalette(palette)
	if len(buf) != 128 {
		t.Fatalf("len = %d, want 128", len(buf))
	}
	g := GPUSkinningMatrix{}
	if g.Size() != 64 {
		t.Errorf("GPUSkinningMatrix size = %d, want 64", g.Size())
	}

	// Second matrix, translation x lives in column 3 row 0.
	got := math.Float32frombits(binary.LittleEndian.Uint32(buf[64+12*4:]))
	if got != 1 {
		t.Errorf("translation x = %f, want 1", got)
	}
	one := GPUSkinningMatrix{Matrix: palette[0]}
	if string(one.Marshal()) != string(buf[:64]) {
		t.Error("Marshal and MarshalPalette disagree")
	}
}
