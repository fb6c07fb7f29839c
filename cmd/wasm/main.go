//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"recon/pkg/engine"
)

// errorJSON renders {"error": msg} for the JS caller.
func errorJSON(msg string) string {
	out, _ := json.Marshal(map[string]string{"error": msg})
	return string(out)
}

// bytesArg copies a Uint8Array argument into Go memory.
func bytesArg(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

// reconRun handles the reconRun JS function call.
// args[0] = Uint8Array (payroll workbook or delimited text)
// args[1] = Uint8Array (directory export)
// args[2] = string (conflict policy, optional: "fold" or "review")
// Returns: JSON string {stats, outcomes, duplicates} or {error}
func reconRun(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorJSON("reconRun requires at least 2 arguments: roster Uint8Array and directory Uint8Array")
	}

	policyName := ""
	if len(args) > 2 && args[2].Type() == js.TypeString {
		policyName = args[2].String()
	}
	policy, err := engine.ParseConflictPolicy(policyName)
	if err != nil {
		return errorJSON(err.Error())
	}

	// No logger in the browser; the result carries the diagnostics.
	res, err := engine.NewPipeline(policy, nil).Run(bytesArg(args[0]), bytesArg(args[1]))
	if err != nil {
		return errorJSON(err.Error())
	}

	out, err := engine.SerializeResult(res)
	if err != nil {
		return errorJSON(err.Error())
	}
	return string(out)
}

func main() {
	js.Global().Set("reconRun", js.FuncOf(reconRun))

	// Block forever so the module stays alive.
	select {}
}
