package envelope

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context the envelope steps need.
type TestContext interface {
	POST(path string, body any) error
	POSTAnonymous(path string, body any) error
	GET(path string) error
	UploadFile(path, name, filename, content string) error
	GetResponseField(field string) (any, error)
	SetVar(name, value string)
	Var(name string) (string, error)
}

// RegisterSteps registers envelope workflow step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &envelopeSteps{tc: tc}

	ctx.Step(`^I upload a document named "([^"]*)"$`, steps.uploadDocument)
	ctx.Step(`^I create a (parallel|sequential) envelope "([^"]*)" with signers:$`, steps.createEnvelope)
	ctx.Step(`^I save the access code of each recipient$`, steps.saveAccessCodes)
	ctx.Step(`^I send the envelope$`, steps.sendEnvelope)
	ctx.Step(`^recipient "([^"]*)" signs$`, steps.recipientSigns)
	ctx.Step(`^recipient "([^"]*)" declines with reason "([^"]*)"$`, steps.recipientDeclines)
	ctx.Step(`^recipient "([^"]*)" verifies access with their code$`, steps.verifyAccess)
	ctx.Step(`^recipient "([^"]*)" verifies access with code "([^"]*)"$`, steps.verifyAccessWithCode)
	ctx.Step(`^I fetch the envelope$`, steps.fetchEnvelope)
	ctx.Step(`^I void the envelope with reason "([^"]*)"$`, steps.voidEnvelope)
}

type envelopeSteps struct {
	tc TestContext
}

func (s *envelopeSteps) uploadDocument(ctx context.Context, name string) error {
	if err := s.tc.UploadFile("/documents", name, name+".pdf", "%PDF-1.7 e2e body"); err != nil {
		return err
	}
	docID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetVar("document_id", docID.(string))

	// Envelopes only accept ready documents.
	return s.tc.POST("/documents/"+docID.(string)+"/processed", map[string]any{"page_count": 1})
}

func (s *envelopeSteps) createEnvelope(ctx context.Context, order, subject string, signers *godog.Table) error {
	docID, err := s.tc.Var("document_id")
	if err != nil {
		return err
	}

	recipients := make([]map[string]any, 0, len(signers.Rows)-1)
	for _, row := range signers.Rows[1:] {
		if len(row.Cells) < 3 {
			return fmt.Errorf("signer rows need name, email and signing_order")
		}
		recipients = append(recipients, map[string]any{
			"name":          row.Cells[0].Value,
			"email":         row.Cells[1].Value,
			"role":          "signer",
			"signing_order": atoi(row.Cells[2].Value),
		})
	}

	err = s.tc.POST("/envelopes", map[string]any{
		"subject":       subject,
		"signing_order": order,
		"document_ids":  []string{docID},
		"recipients":    recipients,
	})
	if err != nil {
		return err
	}

	envelopeID, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetVar("envelope_id", envelopeID.(string))

	// Remember each recipient's ID and plaintext code by email.
	raw, err := s.tc.GetResponseField("recipients")
	if err != nil {
		return err
	}
	for _, item := range raw.([]any) {
		rec := item.(map[string]any)
		email := rec["email"].(string)
		s.tc.SetVar("recipient_id:"+email, rec["id"].(string))
		if code, ok := rec["access_code"].(string); ok {
			s.tc.SetVar("access_code:"+email, code)
		}
	}
	return nil
}

func (s *envelopeSteps) saveAccessCodes(ctx context.Context) error {
	raw, err := s.tc.GetResponseField("recipients")
	if err != nil {
		return err
	}
	for _, item := range raw.([]any) {
		rec := item.(map[string]any)
		code, ok := rec["access_code"].(string)
		if !ok || code == "" {
			return fmt.Errorf("recipient %v carries no access code", rec["email"])
		}
		s.tc.SetVar("access_code:"+rec["email"].(string), code)
	}
	return nil
}

func (s *envelopeSteps) sendEnvelope(ctx context.Context) error {
	envelopeID, err := s.tc.Var("envelope_id")
	if err != nil {
		return err
	}
	return s.tc.POST("/envelopes/"+envelopeID+"/send", nil)
}

func (s *envelopeSteps) recipientPath(email, action string) (string, error) {
	envelopeID, err := s.tc.Var("envelope_id")
	if err != nil {
		return "", err
	}
	recipientID, err := s.tc.Var("recipient_id:" + email)
	if err != nil {
		return "", err
	}
	return "/envelopes/" + envelopeID + "/recipients/" + recipientID + "/" + action, nil
}

func (s *envelopeSteps) recipientSigns(ctx context.Context, email string) error {
	path, err := s.recipientPath(email, "sign")
	if err != nil {
		return err
	}
	return s.tc.POST(path, nil)
}

func (s *envelopeSteps) recipientDeclines(ctx context.Context, email, reason string) error {
	path, err := s.recipientPath(email, "decline")
	if err != nil {
		return err
	}
	return s.tc.POST(path, map[string]any{"reason": reason})
}

func (s *envelopeSteps) verifyAccess(ctx context.Context, email string) error {
	code, err := s.tc.Var("access_code:" + email)
	if err != nil {
		return err
	}
	return s.verifyAccessWithCode(ctx, email, code)
}

func (s *envelopeSteps) verifyAccessWithCode(ctx context.Context, email, code string) error {
	envelopeID, err := s.tc.Var("envelope_id")
	if err != nil {
		return err
	}
	return s.tc.POSTAnonymous("/envelopes/"+envelopeID+"/verify-access", map[string]any{
		"email":       email,
		"access_code": code,
	})
}

func (s *envelopeSteps) fetchEnvelope(ctx context.Context) error {
	envelopeID, err := s.tc.Var("envelope_id")
	if err != nil {
		return err
	}
	return s.tc.GET("/envelopes/" + envelopeID)
}

func (s *envelopeSteps) voidEnvelope(ctx context.Context, reason string) error {
	envelopeID, err := s.tc.Var("envelope_id")
	if err != nil {
		return err
	}
	return s.tc.POST("/envelopes/"+envelopeID+"/void", map[string]any{"reason": reason})
}

func atoi(s string) int {
	var n int
	_, _ = fmt.Sscanf(strings.TrimSpace(s), "%d", &n)
	return n
}
