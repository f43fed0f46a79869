package ast

// PolicyKind identifies the variant held by a Policy.
// Known kinds are named after the document key that introduces them.
type PolicyKind string

const (
	PolicyKindSetEnvironment       PolicyKind = "set-environment"
	PolicyKindBetterInvoke         PolicyKind = "better-invoke"
	PolicyKindResponseHandler      PolicyKind = "response-handler"
	PolicyKindOperationSwitch      PolicyKind = "operation-switch"
	PolicyKindErrorMessageHandling PolicyKind = "error-message-handling"
	PolicyKindJavascript           PolicyKind = "javascript"
	PolicyKindIf                   PolicyKind = "if"
	PolicyKindOther                PolicyKind = "other" // Unrecognized policy, preserved as-is
)

// KnownPolicyKinds lists the known kinds in the fixed order the parser tries them.
var KnownPolicyKinds = []PolicyKind{
	PolicyKindSetEnvironment,
	PolicyKindBetterInvoke,
	PolicyKindResponseHandler,
	PolicyKindOperationSwitch,
	PolicyKindErrorMessageHandling,
	PolicyKindJavascript,
	PolicyKindIf,
}

// Policy is one instruction node of the assembly.
// Exactly one variant pointer is non-nil and it matches Kind.
type Policy struct {
	Kind PolicyKind

	SetEnvironment       *SetEnvironment
	BetterInvoke         *BetterInvoke
	ResponseHandler      *ResponseHandler
	OperationSwitch      *OperationSwitch
	ErrorMessageHandling *ErrorMessageHandling
	Javascript           *Javascript
	If                   *If
	Other                *Other

	// Extensions holds keys found next to the variant key in the same mapping.
	Extensions Extensions
	Location   Location
}

// SetEnvironment is an annotation policy with no runtime effect.
type SetEnvironment struct {
	Description string
}

// BetterInvoke describes an outbound backend call.
type BetterInvoke struct {
	TargetURL string
	Timeout   int     // Per-attempt bound, in the engine's configured unit
	Verb      string  // HTTP verb, or "keep" to reuse the inbound verb
	InputBody *string // Nil means pass the current message body through
	Forever   bool    // Retry failed attempts under the engine's retry policy
}

// KeyValue is one ordered assignment.
type KeyValue struct {
	Key   string
	Value string
}

// ResponseHandler describes post-call response shaping.
// The engine applies the fields in declaration order of this struct.
type ResponseHandler struct {
	StjsDataHolder string // Variable receiving a copy of the body before clearing
	ClearBody      bool
	SetContext     []KeyValue
	SetHeaders     []KeyValue
	SuccessCode    *int
	HardFail       bool
	Frontend       bool
}

// OperationSwitch branches on the inbound operation.
type OperationSwitch struct {
	Title string
	Cases []*Case
}

// Case is one branch of an OperationSwitch.
type Case struct {
	Operations []Operation
	Execute    []*Policy
	Location   Location
}

// Operation identifies an inbound request as (path, verb).
type Operation struct {
	Path string
	Verb string
}

// String returns "verb path".
func (o Operation) String() string {
	return o.Verb + " " + o.Path
}

// ErrorMessageHandling shapes the client-facing error payload.
type ErrorMessageHandling struct {
	Description string
}

// Javascript runs an inline script against the execution context.
type Javascript struct {
	Title  string
	Source string
}

// If runs Execute when Condition evaluates to true.
type If struct {
	Condition string
	Execute   []*Policy
}

// Other preserves a policy whose kind is not recognized.
type Other struct {
	Fields Extensions
}

// Key returns the first key of the unrecognized policy, which usually names its kind.
func (o *Other) Key() string {
	if len(o.Fields) == 0 {
		return ""
	}
	return o.Fields[0].Key
}

// Title returns a human-readable name for the policy.
func (p *Policy) Title() string {
	switch p.Kind {
	case PolicyKindOperationSwitch:
		if p.OperationSwitch.Title != "" {
			return p.OperationSwitch.Title
		}
	case PolicyKindJavascript:
		if p.Javascript.Title != "" {
			return p.Javascript.Title
		}
	case PolicyKindOther:
		if k := p.Other.Key(); k != "" {
			return k
		}
	}
	return string(p.Kind)
}

// IsBranch returns true for policies that hold nested policy lists.
func (p *Policy) IsBranch() bool {
	return p.Kind == PolicyKindIf || p.Kind == PolicyKindOperationSwitch
}

// Children returns the nested policy lists of a branch policy in declaration order.
func (p *Policy) Children() [][]*Policy {
	switch p.Kind {
	case PolicyKindIf:
		return [][]*Policy{p.If.Execute}
	case PolicyKindOperationSwitch:
		lists := make([][]*Policy, 0, len(p.OperationSwitch.Cases))
		for _, c := range p.OperationSwitch.Cases {
			lists = append(lists, c.Execute)
		}
		return lists
	default:
		return nil
	}
}
