package eval

import (
	"github.com/NixOS/nix-sub000/internal/env"
	"github.com/NixOS/nix-sub000/internal/value"
)

// globalNames are the identifiers bound at the root of every file's scope
// chain, matching the handful of names upstream Nix exposes unqualified
// rather than only under `builtins.` — everything else this evaluator's
// primops package registers is reachable solely via `builtins.<name>`.
var globalNames = []string{"builtins", "true", "false", "null"}

// InitGlobals builds the evaluator's global scope: the StaticEnv every
// parsed file is resolved against (GlobalStatic) and the Environment
// frame holding the runtime values for globalNames (RootEnv). It must be
// called exactly once per Evaluator, after ev.Builtins has been
// populated by internal/primops.Build, and before Parse/Bind/EvalFile is
// used on any expression.
func (ev *Evaluator) InitGlobals() {
	se := env.NewStaticEnv()
	for _, name := range globalNames {
		se.Declare(ev.Symbols.Intern(name))
	}
	ev.GlobalStatic = se

	root := value.NewEnvironment(len(globalNames))
	root.Bind(0, ev.Builtins)
	root.Bind(1, value.NewBool(true))
	root.Bind(2, value.NewBool(false))
	root.Bind(3, value.NewNull())
	ev.RootEnv = root
}
