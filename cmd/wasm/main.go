//go:build js && wasm

package main

import (
	"context"
	"io"
	"strings"
	"syscall/js"
	"time"

	"github.com/johngerving/3D-Building-Map-sub000/internal/asset"
	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
)

const defaultFlyFrames = 45

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(browserFetcher())

	// Create the engine API object
	buildingEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	buildingEngine.Set("loadBuilding", js.FuncOf(loadBuilding))
	buildingEngine.Set("loadFloors", js.FuncOf(loadBuilding))
	buildingEngine.Set("loadSample", js.FuncOf(loadSample))
	buildingEngine.Set("invalidate", js.FuncOf(invalidate))
	buildingEngine.Set("setFocus", js.FuncOf(setFocus))
	buildingEngine.Set("setPosition", js.FuncOf(setPosition))
	buildingEngine.Set("flyTo", js.FuncOf(flyTo))
	buildingEngine.Set("tick", js.FuncOf(tick))

	// --- Queries (frontend ← engine) ---
	buildingEngine.Set("snapshot", js.FuncOf(snapshot))
	buildingEngine.Set("heightForIndex", js.FuncOf(heightForIndex))
	buildingEngine.Set("getCamera", js.FuncOf(getCamera))
	buildingEngine.Set("getBuilding", js.FuncOf(getBuilding))
	buildingEngine.Set("getFocus", js.FuncOf(getFocus))

	// Register on global scope
	js.Global().Set("buildingEngine", buildingEngine)

	// Signal that WASM is ready
	js.Global().Set("buildingWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// browserFetcher resolves site-relative sources against the page origin so
// /assets/ plans are fetched from the server that served the page.
func browserFetcher() engine.Fetcher {
	remote := asset.NewFetcher("", 15*time.Second)
	origin := js.Global().Get("location").Get("origin").String()
	return engine.FetcherFunc(func(ctx context.Context, source string) (io.ReadCloser, error) {
		if strings.HasPrefix(source, "/") {
			source = origin + source
		}
		return remote.Fetch(ctx, source)
	})
}

// promise runs fn off the JS event loop. Fetches inside fn need the event
// loop to make progress, so loads cannot block the calling callback.
func promise(fn func() error) js.Value {
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve, reject := args[0], args[1]
		go func() {
			if err := fn(); err != nil {
				reject.Invoke(js.ValueOf(map[string]interface{}{"error": err.Error()}))
				return
			}
			resolve.Invoke(js.ValueOf(map[string]interface{}{"ok": true}))
		}()
		return nil
	})
	defer handler.Release()
	return js.Global().Get("Promise").New(handler)
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func easingArg(args []js.Value, i int) engine.Easing {
	if len(args) > i && args[i].Type() == js.TypeString {
		return engine.Easing(args[i].String())
	}
	return engine.DefaultCameraEase
}

func framesArg(args []js.Value, i int) int {
	if len(args) > i && args[i].Type() == js.TypeNumber {
		return args[i].Int()
	}
	return defaultFlyFrames
}

// --- Command Handlers ---

func loadBuilding(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing building JSON"})
	}
	jsonData := args[0].String()
	return promise(func() error {
		return eng.LoadBuilding(context.Background(), jsonData)
	})
}

func loadSample(this js.Value, args []js.Value) interface{} {
	buildingID := "bld_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		buildingID = args[0].String()
	}
	return promise(func() error {
		return eng.LoadSampleBuilding(context.Background(), buildingID)
	})
}

func invalidate(this js.Value, args []js.Value) interface{} {
	eng.Invalidate()
	return nil
}

// setFocus(floorId, frames?, easing?); an empty id clears the focus.
func setFocus(this js.Value, args []js.Value) interface{} {
	floorID := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		floorID = args[0].String()
	}
	return result(eng.SetFocus(floorID, framesArg(args, 1), easingArg(args, 2)))
}

func setPosition(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "setPosition(floorId, x, z)"})
	}
	return result(eng.SetPosition(args[0].String(), args[1].Float(), args[2].Float()))
}

func flyTo(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing floor index"})
	}
	return result(eng.FlyTo(args[0].Int(), framesArg(args, 1), easingArg(args, 2)))
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Tick())
}

// --- Query Handlers ---

func snapshot(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Snapshot())
}

func heightForIndex(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	return js.ValueOf(eng.HeightForIndex(args[0].Int()))
}

func getCamera(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetCamera())
}

func getBuilding(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetBuilding())
}

func getFocus(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetFocus())
}
