package primops

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/NixOS/nix-sub000/internal/attrs"
	"github.com/NixOS/nix-sub000/internal/errs"
	"github.com/NixOS/nix-sub000/internal/symtab"
	"github.com/NixOS/nix-sub000/internal/value"
)

func init() {
	prim("derivationStrict", 1, []string{"drvAttrs"}, primDerivationStrict)
}

// primDerivationStrict implements the worker builtins.derivation delegates
// to after assembling its input attrset: it does not talk to a real store
// or spawn a builder, since this evaluator's store/fetcher subsystem is
// only a narrow Store interface (internal/store) rather than a working
// content-addressed store. Instead it derives the drvPath/outPath strings
// deterministically from the drv's own attributes, following get-drvs.hh's
// output-shape contract (type="derivation", drvPath, outPath, outputs)
// closely enough that internal/evalcache's AttrCursor.forceDerivation and
// any code consuming a derivation result attrset sees the same fields
// upstream Nix's derivationStrict would produce.
func primDerivationStrict(call value.Caller, args []*value.Value, pos symtab.PosIdx) (*value.Value, error) {
	drvAttrs, err := requireAttrs(call, pos, args[0])
	if err != nil {
		return nil, err
	}

	name, err := lookupRequiredString(call, pos, drvAttrs, "name")
	if err != nil {
		return nil, err
	}
	system, err := lookupOptionalString(call, pos, drvAttrs, "system", "")
	if err != nil {
		return nil, err
	}
	outputs, err := lookupOutputNames(call, pos, drvAttrs)
	if err != nil {
		return nil, err
	}

	env, err := collectEnv(call, pos, drvAttrs)
	if err != nil {
		return nil, err
	}

	drvPath := derivationHash("drv", name, system, env)
	outPaths := make(map[string]string, len(outputs))
	for _, out := range outputs {
		outPaths[out] = outputHash(drvPath, name, out)
	}

	// Every output path string carries a Built context entry pointing back
	// at drvPath+output, the same way upstream's derivationStrict result
	// lets `"${pkg}/bin"`-style interpolation track which derivation output
	// a string depends on.
	outPathString := func(out string) *value.Value {
		return value.NewStringWithContext(outPaths[out], []value.ContextEntry{{Kind: value.Built, Path: drvPath, Output: out}})
	}

	primary := primaryOutput(outputs)
	b := newBuilder(4 + len(outputs))
	b.set(call, "type", value.NewString("derivation"))
	b.set(call, "name", value.NewString(name))
	b.set(call, "system", value.NewString(system))
	b.set(call, "drvPath", value.NewString(drvPath))
	b.set(call, "outPath", outPathString(primary))

	outputList := make([]*value.Value, len(outputs))
	for i, out := range outputs {
		outputList[i] = value.NewString(out)
		b.set(call, out, outPathString(out))
	}
	b.set(call, "outputs", &value.Value{Kind: value.KindList, List: value.NewList(outputList)})

	return b.build(), nil
}

// primaryOutput returns "out" when present (the common case), else the
// first declared output name, matching upstream's "outPath mirrors the
// default output" behavior for single- and multiple-output derivations.
func primaryOutput(outputs []string) string {
	for _, o := range outputs {
		if o == "out" {
			return o
		}
	}
	return outputs[0]
}

func lookupRequiredString(call value.Caller, pos symtab.PosIdx, drvAttrs *value.Value, name string) (string, error) {
	slot, ok := drvAttrs.Attrs.Get(call.Intern(name))
	if !ok {
		return "", errs.New(errs.TypeError, call.Pos(pos), "required derivation attribute %q is missing", name)
	}
	return coerceToString(call, pos, slotValue(slot))
}

func lookupOptionalString(call value.Caller, pos symtab.PosIdx, drvAttrs *value.Value, name, def string) (string, error) {
	slot, ok := drvAttrs.Attrs.Get(call.Intern(name))
	if !ok {
		return def, nil
	}
	return coerceToString(call, pos, slotValue(slot))
}

// lookupOutputNames reads the drv's `outputs` attribute (a list of
// strings), defaulting to a single "out" output exactly as upstream Nix
// does when a derivation call omits `outputs` entirely.
func lookupOutputNames(call value.Caller, pos symtab.PosIdx, drvAttrs *value.Value) ([]string, error) {
	slot, ok := drvAttrs.Attrs.Get(call.Intern("outputs"))
	if !ok {
		return []string{"out"}, nil
	}
	list, err := requireList(call, pos, slotValue(slot))
	if err != nil {
		return nil, err
	}
	names := make([]string, list.Len())
	for i := 0; i < list.Len(); i++ {
		s, err := requireString(call, pos, list.At(i))
		if err != nil {
			return nil, err
		}
		names[i] = s
	}
	if len(names) == 0 {
		return []string{"out"}, nil
	}
	return names, nil
}

// collectEnv coerces every drv attribute to its string form, the same
// flattening upstream Nix applies when turning a derivation's attrset
// into the builder's environment variables (list-valued attrs become a
// space-separated string, the same as a real builder environment would
// see). `outputs` is skipped — it names which output paths exist, it is
// not itself passed through as an environment string. Only used here to
// seed the drvPath hash, since no real builder is invoked.
func collectEnv(call value.Caller, pos symtab.PosIdx, drvAttrs *value.Value) (map[string]string, error) {
	outputsSym := call.Intern("outputs")
	env := make(map[string]string, drvAttrs.Attrs.Len())
	var rangeErr error
	drvAttrs.Attrs.Range(func(sym symtab.Symbol, _ symtab.PosIdx, slot *attrs.Slot) {
		if rangeErr != nil || sym == outputsSym {
			return
		}
		s, err := envString(call, pos, slotValue(*slot))
		if err != nil {
			rangeErr = err
			return
		}
		env[call.SymbolName(sym)] = s
	})
	return env, rangeErr
}

// envString is coerceToString extended with list-to-space-joined-string
// coercion, the form a derivation attrset's list-valued attributes (e.g.
// `args`) take once flattened into a builder's environment.
func envString(call value.Caller, pos symtab.PosIdx, v *value.Value) (string, error) {
	if err := call.Force(v, pos); err != nil {
		return "", err
	}
	if v.Kind != value.KindList {
		return coerceToString(call, pos, v)
	}
	parts := make([]string, v.List.Len())
	for i := 0; i < v.List.Len(); i++ {
		s, err := envString(call, pos, v.List.At(i))
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, " "), nil
}

func derivationHash(kind, name, system string, env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\x00%s\x00%s\x00", kind, name, system)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\x00", k, env[k])
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("/nix/store/%s-%s.drv", hex.EncodeToString(sum[:])[:32], name)
}

func outputHash(drvPath, name, output string) string {
	sum := sha256.Sum256([]byte(drvPath + "\x00" + output))
	base := name
	if output != "out" {
		base = name + "-" + output
	}
	return fmt.Sprintf("/nix/store/%s-%s", hex.EncodeToString(sum[:])[:32], base)
}
