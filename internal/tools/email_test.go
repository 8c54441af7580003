package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/rahul/manuclaw/internal/governance"
)

func testEmailTool() (*EmailSendTool, *[]string) {
	var sent []string
	tool := NewEmailSendTool(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     465,
		User:     "agent@example.com",
		Password: "secret",
	}, governance.NewDefaultPolicyEngine())
	tool.send = func(cfg SMTPConfig, to, subject, body string) error {
		sent = append(sent, to)
		return nil
	}
	return tool, &sent
}

func TestEmailSend(t *testing.T) {
	tool, sent := testEmailTool()

	out, err := tool.Call(context.Background(), Inputs{
		FieldRawInput: "summarize and send it to alice@example.com",
		FieldSummary:  "- point one\n- point two",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*sent) != 1 || (*sent)[0] != "alice@example.com" {
		t.Errorf("message not delivered to extracted recipient: %v", *sent)
	}
	if !strings.Contains(out[FieldEmailReceipt], "alice@example.com") {
		t.Errorf("receipt missing recipient: %q", out[FieldEmailReceipt])
	}
}

func TestEmailSendNoRecipient(t *testing.T) {
	tool, sent := testEmailTool()

	_, err := tool.Call(context.Background(), Inputs{
		FieldRawInput: "summarize and mail it to my boss",
		FieldSummary:  "body",
	})
	if err == nil {
		t.Fatal("expected error when no address is present")
	}
	if len(*sent) != 0 {
		t.Errorf("nothing should have been sent: %v", *sent)
	}
}

func TestEmailSendBlankBody(t *testing.T) {
	tool, _ := testEmailTool()

	_, err := tool.Call(context.Background(), Inputs{
		FieldRawInput: "mail bob@example.com",
		FieldSummary:  "   ",
	})
	if err == nil {
		t.Fatal("expected error for blank body")
	}
}

func TestEmailSendDeniedByPolicy(t *testing.T) {
	tool, sent := testEmailTool()
	engine := governance.NewDefaultPolicyEngine()
	if err := engine.DenyRecipient(`(?i)^all@`); err != nil {
		t.Fatal(err)
	}
	tool.Policy = engine

	_, err := tool.Call(context.Background(), Inputs{
		FieldRawInput: "send this to all@example.com",
		FieldSummary:  "body",
	})
	if err == nil {
		t.Fatal("expected policy denial")
	}
	if len(*sent) != 0 {
		t.Errorf("denied message was still sent: %v", *sent)
	}
}

func TestEmailSendMissingCredentials(t *testing.T) {
	tool := NewEmailSendTool(SMTPConfig{}, nil)
	tool.send = func(cfg SMTPConfig, to, subject, body string) error { return nil }

	_, err := tool.Call(context.Background(), Inputs{
		FieldRawInput: "mail bob@example.com",
		FieldSummary:  "body",
	})
	if err == nil {
		t.Fatal("expected error without smtp credentials")
	}
}
