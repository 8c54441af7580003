package governance

import (
	"context"
	"fmt"
	"regexp"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request contains the context of an outbound email to be evaluated.
type Request struct {
	Recipient string
	Subject   string
	Body      string
}

// Result contains the outcome of a policy evaluation.
type Result struct {
	Effect Effect
	Reason string
}

// PolicyEngine evaluates outbound messages against a set of rules
// before anything leaves the process.
type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Result, error)
}

// DefaultPolicyEngine is a basic implementation of PolicyEngine.
type DefaultPolicyEngine struct {
	DeniedRecipients []*regexp.Regexp
	DeniedContent    []*regexp.Regexp
}

func NewDefaultPolicyEngine() *DefaultPolicyEngine {
	return &DefaultPolicyEngine{
		DeniedRecipients: make([]*regexp.Regexp, 0),
		DeniedContent:    make([]*regexp.Regexp, 0),
	}
}

func (e *DefaultPolicyEngine) DenyRecipient(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedRecipients = append(e.DeniedRecipients, re)
	return nil
}

func (e *DefaultPolicyEngine) DenyContent(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	e.DeniedContent = append(e.DeniedContent, re)
	return nil
}

func (e *DefaultPolicyEngine) Evaluate(ctx context.Context, req Request) (Result, error) {
	for _, re := range e.DeniedRecipients {
		if re.MatchString(req.Recipient) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Recipient '%s' is restricted by system policy", req.Recipient),
			}, nil
		}
	}

	for _, re := range e.DeniedContent {
		if re.MatchString(req.Subject) || re.MatchString(req.Body) {
			return Result{
				Effect: EffectDeny,
				Reason: fmt.Sprintf("Content matches restricted pattern: %s", re.String()),
			}, nil
		}
	}

	return Result{
		Effect: EffectAllow,
		Reason: "Approved by default policy",
	}, nil
}
