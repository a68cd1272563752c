//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/inamate/sketchplane/internal/command"
	"github.com/inamate/sketchplane/internal/document"
	"github.com/inamate/sketchplane/internal/engine"
	"github.com/inamate/sketchplane/internal/entity"
	"github.com/inamate/sketchplane/internal/geom"
)

var eng *engine.Engine

func main() {
	eng = engine.New(engine.Options{})

	api := js.Global().Get("Object").New()

	// --- Scene ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("onChange", js.FuncOf(onChange))

	// --- Intents ---
	api.Set("addCanvas", js.FuncOf(addCanvas))
	api.Set("setCanvasCurrent", js.FuncOf(setCanvasCurrent))
	api.Set("deleteCanvas", js.FuncOf(deleteCanvas))
	api.Set("offsetCanvas", js.FuncOf(offsetCanvas))
	api.Set("rotateCanvas", js.FuncOf(rotateCanvas))
	api.Set("addStroke", js.FuncOf(addStroke))
	api.Set("selectRect", js.FuncOf(selectRect))
	api.Set("moveStrokes", js.FuncOf(moveStrokes))
	api.Set("scaleStrokes", js.FuncOf(scaleStrokes))
	api.Set("rotateStrokes", js.FuncOf(rotateStrokes))
	api.Set("pushStrokes", js.FuncOf(pushStrokes))
	api.Set("deleteSelectedStrokes", js.FuncOf(deleteSelectedStrokes))
	api.Set("cut", js.FuncOf(cut))
	api.Set("copy", js.FuncOf(copyStrokes))
	api.Set("paste", js.FuncOf(paste))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))

	// --- Queries ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getHistory", js.FuncOf(getHistory))

	js.Global().Set("sketchplaneEngine", api)
	js.Global().Set("sketchplaneWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) any {
	if err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}
	return js.ValueOf(map[string]any{"ok": true})
}

func toJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func argString(args []js.Value, i int) string {
	if len(args) <= i || args[i].Type() != js.TypeString {
		return ""
	}
	return args[i].String()
}

func argFloat(args []js.Value, i int) float64 {
	if len(args) <= i || args[i].Type() != js.TypeNumber {
		return 0
	}
	return args[i].Float()
}

// --- Scene ---

func loadDocument(this js.Value, args []js.Value) any {
	var doc document.Document
	if err := json.Unmarshal([]byte(argString(args, 0)), &doc); err != nil {
		return result(err)
	}
	return result(eng.Load(&doc))
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	return result(eng.Load(document.NewSampleDocument()))
}

func getDocument(this js.Value, args []js.Value) any {
	return toJSON(eng.Snapshot())
}

// onChange registers a JS callback receiving each change as a JSON string.
func onChange(this js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return nil
	}
	cb := args[0]
	unsubscribe := eng.Subscribe(func(chg command.Change) {
		data, _ := json.Marshal(chg)
		cb.Invoke(string(data))
	})
	return js.FuncOf(func(this js.Value, args []js.Value) any {
		unsubscribe()
		return nil
	})
}

// --- Intents ---

func addCanvas(this js.Value, args []js.Value) any {
	var spec struct {
		Name        string      `json:"name"`
		Rotation    *[4]float64 `json:"rotation"`
		Translation [3]float64  `json:"translation"`
	}
	if s := argString(args, 0); s != "" {
		if err := json.Unmarshal([]byte(s), &spec); err != nil {
			return result(err)
		}
	}
	cs := entity.CanvasSpec{Name: spec.Name, Translation: mgl64.Vec3(spec.Translation)}
	if q := spec.Rotation; q != nil {
		cs.Rotation = mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
	}
	return js.ValueOf(eng.AddCanvas(cs))
}

func setCanvasCurrent(this js.Value, args []js.Value) any {
	return result(eng.SetCanvasCurrent(argString(args, 0)))
}

func deleteCanvas(this js.Value, args []js.Value) any {
	return result(eng.DeleteCanvas(argString(args, 0)))
}

func offsetCanvas(this js.Value, args []js.Value) any {
	return result(eng.OffsetCanvas(mgl64.Vec3{argFloat(args, 0), argFloat(args, 1), argFloat(args, 2)}))
}

// rotateCanvas takes an angle in radians and an axis.
func rotateCanvas(this js.Value, args []js.Value) any {
	axis := mgl64.Vec3{argFloat(args, 1), argFloat(args, 2), argFloat(args, 3)}
	if axis.Len() < geom.Epsilon {
		axis = mgl64.Vec3{0, 1, 0}
	}
	return result(eng.RotateCanvas(mgl64.QuatRotate(argFloat(args, 0), axis.Normalize())))
}

// addStroke takes the canvas id ("" for current) and a flat [u0, v0, u1, v1, ...] array.
func addStroke(this js.Value, args []js.Value) any {
	if len(args) < 2 || args[1].Type() != js.TypeObject {
		return result(command.ErrInvalidArgument)
	}
	arr := args[1]
	spec := entity.StrokeSpec{}
	for i := 0; i+1 < arr.Length(); i += 2 {
		spec.Points = append(spec.Points, mgl64.Vec2{arr.Index(i).Float(), arr.Index(i + 1).Float()})
	}
	id, err := eng.AddStroke(argString(args, 0), spec)
	if err != nil {
		return result(err)
	}
	return js.ValueOf(id)
}

func selectRect(this js.Value, args []js.Value) any {
	r := geom.Rect{X: argFloat(args, 1), Y: argFloat(args, 2), Width: argFloat(args, 3), Height: argFloat(args, 4)}
	ids, err := eng.SelectRect(argString(args, 0), r)
	if err != nil {
		return result(err)
	}
	return toJSON(ids)
}

func moveStrokes(this js.Value, args []js.Value) any {
	return result(eng.MoveStrokes(argFloat(args, 0), argFloat(args, 1)))
}

func scaleStrokes(this js.Value, args []js.Value) any {
	return result(eng.ScaleStrokes(argFloat(args, 0)))
}

func rotateStrokes(this js.Value, args []js.Value) any {
	return result(eng.RotateStrokes(argFloat(args, 0)))
}

func pushStrokes(this js.Value, args []js.Value) any {
	return result(eng.PushStrokes(mgl64.Vec3{argFloat(args, 0), argFloat(args, 1), argFloat(args, 2)}))
}

func deleteSelectedStrokes(this js.Value, args []js.Value) any {
	return result(eng.DeleteSelectedStrokes())
}

func cut(this js.Value, args []js.Value) any {
	return result(eng.Cut(argString(args, 0)))
}

func copyStrokes(this js.Value, args []js.Value) any {
	_, err := eng.Copy(argString(args, 0))
	return result(err)
}

func paste(this js.Value, args []js.Value) any {
	ids, err := eng.Paste(argString(args, 0))
	if err != nil {
		return result(err)
	}
	return toJSON(ids)
}

func undo(this js.Value, args []js.Value) any {
	return result(eng.Undo())
}

func redo(this js.Value, args []js.Value) any {
	return result(eng.Redo())
}

// --- Queries ---

func render(this js.Value, args []js.Value) any {
	out, _ := engine.DrawCommandsToJSON(eng.Render())
	return js.ValueOf(out)
}

func hitTest(this js.Value, args []js.Value) any {
	id, err := eng.HitTest(argString(args, 0), argFloat(args, 1), argFloat(args, 2))
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(id)
}

func getSelectionBounds(this js.Value, args []js.Value) any {
	b := eng.SelectionBounds()
	return toJSON(map[string]float64{"x": b.X, "y": b.Y, "width": b.Width, "height": b.Height})
}

func getHistory(this js.Value, args []js.Value) any {
	return toJSON(eng.History())
}
