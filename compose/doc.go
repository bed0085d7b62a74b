// Package compose is the type-composition and lifecycle engine.
//
// A Type is defined once through a Registry and may extend one superclass and
// mix in any number of other types. The first time a type is used it is
// decorated: the registry computes its composition list (ancestors, then the
// mixins it introduces, then itself, with every type appearing once no matter
// how many paths reach it), merges mixin members that ordinary inheritance does
// not already provide, and fires the Extended and Mixed hooks of the types it
// builds on.
//
// Instances walk the composition list on construction (forward) and
// destruction (reverse), running each type's own Construct or Destroy hook
// exactly once:
//
//	base, _ := reg.Define(compose.Class{Name: "Widget", Construct: initWidget})
//	themed, _ := reg.Define(compose.Class{
//	    Name:        "Themed",
//	    Construct:   initTheme,
//	    Declaration: &compose.Declaration{MixinID: "theme"},
//	})
//	button, _ := reg.Define(compose.Class{
//	    Name:        "Button",
//	    Extends:     base,
//	    Declaration: &compose.Declaration{Mixins: []compose.Ref{themed}},
//	})
//
//	inst, err := button.Create(compose.Config{"label": "OK"})
//	...
//	defer inst.Destroy()
//
// Decoration is serialized per registry and descriptors are immutable once
// published, so types may be shared between goroutines. Instances are not
// safe for concurrent use.
package compose
