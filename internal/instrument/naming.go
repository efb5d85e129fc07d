package instrument

import (
	"fmt"
	"strings"
)

// appScope names the top-level app in identities and suffix tokens.
const appScope = "app"

// Hook kinds as they appear in identities and, lowercased, in suffix tokens.
const (
	hookPreprocess  = "preprocessTree"
	hookPostprocess = "postprocessTree"
)

// tokenReplacer keeps suffix tokens to a single path segment.
var tokenReplacer = strings.NewReplacer("/", "_", `\`, "_")

func token(s string) string { return tokenReplacer.Replace(s) }

// AppTreeIdentity names the tracer around app slot name.
func AppTreeIdentity(name string) string {
	return fmt.Sprintf("%s.trees['%s']", appScope, name)
}

// AppTreeSuffix is the suffix token of an app slot.
func AppTreeSuffix(name string) string {
	return appScope + "_trees_" + token(name)
}

// TreeForIdentity names the tracer around an addon's tree for a content type.
func TreeForIdentity(prefix, typ string) string {
	return fmt.Sprintf("%s.treeFor('%s')", prefix, typ)
}

// TreeForSuffix is the suffix token of an addon content type.
func TreeForSuffix(prefix, typ string) string {
	return token(prefix) + "_treefor_" + token(typ)
}

// HookIdentity names the tracer installed by a pre/post hook in scope.
func HookIdentity(scope, hook, typ string) string {
	return fmt.Sprintf("%s.%s('%s')", scope, hook, typ)
}

// HookSuffix is the suffix token of a pre/post hook in scope.
func HookSuffix(scope, hook, typ string) string {
	return token(scope) + "_" + strings.ToLower(hook) + "_" + token(typ)
}
