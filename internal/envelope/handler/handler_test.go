package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"signet/internal/envelope/handler/mocks"
	"signet/internal/envelope/models"
	"signet/internal/envelope/service"
	"signet/internal/identity"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/testutil"
)

// stubValidator accepts any bearer token and yields fixed claims.
type stubValidator struct {
	claims *identity.Claims
	err    error
}

func (v stubValidator) ValidateToken(string) (*identity.Claims, error) {
	return v.claims, v.err
}

type EnvelopeHandlerSuite struct {
	suite.Suite
	callerID id.UserID
	now      time.Time
}

func TestEnvelopeHandlerSuite(t *testing.T) {
	suite.Run(t, new(EnvelopeHandlerSuite))
}

func (s *EnvelopeHandlerSuite) SetupTest() {
	s.callerID = id.NewUserID()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *EnvelopeHandlerSuite) newRouter(t *testing.T) (http.Handler, *mocks.MockWorkflowService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockWorkflowService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validator := stubValidator{claims: &identity.Claims{UserID: s.callerID, Email: "sender@example.com"}}
	h := New(mockService, validator, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func (s *EnvelopeHandlerSuite) do(router http.Handler, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *EnvelopeHandlerSuite) newWorkflow() *models.Workflow {
	policy := models.DefaultPolicy()
	env, err := models.NewEnvelope(id.NewEnvelopeID(), s.callerID, "Contract", "Please sign.", models.SigningOrderParallel, 0, policy, s.now)
	s.Require().NoError(err)
	rec, err := models.NewRecipient(id.NewRecipientID(), env.ID, "One", "one@example.com", "", models.RecipientRoleSigner, 1, policy, s.now)
	s.Require().NoError(err)
	return &models.Workflow{Envelope: env, Recipients: []*models.Recipient{rec}}
}

func (s *EnvelopeHandlerSuite) TestAuthRequired() {
	router, _ := s.newRouter(s.T())

	rec := s.do(router, http.MethodGet, "/envelopes", nil, false)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(router, http.MethodPost, "/envelopes", map[string]any{"subject": "x"}, false)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestInvalidTokenRejected() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockWorkflowService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	validator := stubValidator{err: dErrors.New(dErrors.CodeUnauthorized, "expired")}
	h := New(mockService, validator, logger)
	r := chi.NewRouter()
	h.Register(r)

	rec := s.do(r, http.MethodGet, "/envelopes", nil, true)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestCreateEnvelope() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()
	docID := id.NewDocumentID()

	mockService.EXPECT().
		CreateEnvelope(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, in service.CreateEnvelopeInput) (*models.Workflow, error) {
			s.Equal(s.callerID, in.SenderID)
			s.Equal("Contract", in.Subject)
			s.Equal(models.SigningOrderSequential, in.SigningOrder)
			s.Require().Len(in.DocumentIDs, 1)
			s.Equal(docID, in.DocumentIDs[0])
			s.Require().Len(in.Recipients, 1)
			s.Equal(models.RecipientRoleSigner, in.Recipients[0].Role)
			return workflow, nil
		})

	body := map[string]any{
		"subject":       "Contract",
		"signing_order": "sequential",
		"document_ids":  []string{docID.String()},
		"recipients": []map[string]any{
			{"name": "One", "email": "one@example.com", "role": "signer", "signing_order": 1},
		},
	}
	rec := s.do(router, http.MethodPost, "/envelopes", body, true)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(workflow.Envelope.ID.String(), resp["id"])
	s.Equal("draft", resp["status"])

	recipients := resp["recipients"].([]any)
	s.Require().Len(recipients, 1)
	first := recipients[0].(map[string]any)
	// The plaintext access code is handed back exactly once, at creation.
	s.NotEmpty(first["access_code"])
}

func (s *EnvelopeHandlerSuite) TestCreateEnvelopeBadBody() {
	router, _ := s.newRouter(s.T())

	req := httptest.NewRequest(http.MethodPost, "/envelopes", bytes.NewReader([]byte("not json")))
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestCreateEnvelopeRejectsUnknownRole() {
	router, _ := s.newRouter(s.T())

	body := map[string]any{
		"subject":      "Contract",
		"document_ids": []string{id.NewDocumentID().String()},
		"recipients": []map[string]any{
			{"name": "One", "email": "one@example.com", "role": "witness"},
		},
	}
	rec := s.do(router, http.MethodPost, "/envelopes", body, true)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestGetEnvelope() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()
	details := &service.EnvelopeDetails{
		Envelope:   workflow.Envelope,
		Recipients: workflow.Recipients,
		Sender:     &identity.User{ID: s.callerID, Name: "Sender", Email: "sender@example.com"},
	}

	mockService.EXPECT().
		GetEnvelope(gomock.Any(), workflow.Envelope.ID, s.callerID, true).
		Return(details, nil)

	rec := s.do(router, http.MethodGet, "/envelopes/"+workflow.Envelope.ID.String()+"?include_access_codes=true", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(workflow.Envelope.ID.String(), resp["id"])
	sender := resp["sender"].(map[string]any)
	s.Equal("sender@example.com", sender["email"])
}

func (s *EnvelopeHandlerSuite) TestGetEnvelopeMalformedID() {
	router, _ := s.newRouter(s.T())
	rec := s.do(router, http.MethodGet, "/envelopes/not-a-uuid", nil, true)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestListEnvelopes() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()

	sent := models.EnvelopeStatusSent
	mockService.EXPECT().
		ListEnvelopes(gomock.Any(), s.callerID, &sent, 2, 5).
		Return(&service.EnvelopePage{Envelopes: []*models.Envelope{workflow.Envelope}, Total: 11, HasMore: true}, nil)

	rec := s.do(router, http.MethodGet, "/envelopes?status=sent&page=2&page_size=5", nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(float64(11), resp["total"])
	s.Equal(true, resp["has_more"])
	s.Len(resp["envelopes"].([]any), 1)
}

func (s *EnvelopeHandlerSuite) TestServiceErrorMapping() {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "envelope not found"), http.StatusNotFound},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "not the sender"), http.StatusForbidden},
		{"conflict", dErrors.New(dErrors.CodeConflict, "version conflict"), http.StatusConflict},
		{"validation", dErrors.New(dErrors.CodeValidation, "cannot send"), http.StatusUnprocessableEntity},
		{"internal", dErrors.New(dErrors.CodeInternal, "database down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			router, mockService := s.newRouter(s.T())
			envelopeID := id.NewEnvelopeID()
			mockService.EXPECT().
				SendEnvelope(gomock.Any(), envelopeID, s.callerID).
				Return(nil, tc.err)

			rec := s.do(router, http.MethodPost, "/envelopes/"+envelopeID.String()+"/send", nil, true)
			s.Equal(tc.want, rec.Code)

			var resp map[string]any
			s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
			detail := resp["error"].(map[string]any)
			if tc.want == http.StatusInternalServerError {
				// Internal detail never leaks to the client.
				s.Equal("internal server error", detail["message"])
			} else {
				s.NotEmpty(detail["message"])
			}
		})
	}
}

func (s *EnvelopeHandlerSuite) TestVoidEnvelope() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()
	workflow.Envelope.ApplyVoid("signed on paper", s.now)

	mockService.EXPECT().
		VoidEnvelope(gomock.Any(), workflow.Envelope.ID, s.callerID, "signed on paper").
		Return(workflow.Envelope, nil)

	rec := s.do(router, http.MethodPost, "/envelopes/"+workflow.Envelope.ID.String()+"/void",
		map[string]any{"reason": "signed on paper"}, true)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal("voided", resp["status"])
	s.Equal("signed on paper", resp["void_reason"])
}

func (s *EnvelopeHandlerSuite) TestDeleteEnvelope() {
	router, mockService := s.newRouter(s.T())
	envelopeID := id.NewEnvelopeID()

	mockService.EXPECT().
		DeleteEnvelope(gomock.Any(), envelopeID, s.callerID).
		Return(nil)

	rec := s.do(router, http.MethodDelete, "/envelopes/"+envelopeID.String(), nil, true)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestSignRecipient() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()
	recipient := workflow.Recipients[0]
	recipient.MarkSent(s.now)
	recipient.MarkSigned(s.now)

	mockService.EXPECT().
		MarkRecipientSigned(gomock.Any(), workflow.Envelope.ID, recipient.ID).
		Return(recipient, true, nil)

	path := "/envelopes/" + workflow.Envelope.ID.String() + "/recipients/" + recipient.ID.String() + "/sign"
	rec := s.do(router, http.MethodPost, path, nil, true)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(true, resp["envelope_completed"])
	inner, ok := resp["recipient"].(map[string]any)
	s.Require().True(ok)
	s.Equal("signed", inner["status"])
}

func (s *EnvelopeHandlerSuite) TestUpdateSigningOrderBatch() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()
	recipient := workflow.Recipients[0]
	recipient.SigningOrder = 3

	mockService.EXPECT().
		UpdateRecipientSigningOrder(gomock.Any(), workflow.Envelope.ID, s.callerID,
			[]service.SigningOrderUpdate{{RecipientID: recipient.ID, SigningOrder: 3}}).
		Return([]*models.Recipient{recipient}, nil)

	path := "/envelopes/" + workflow.Envelope.ID.String() + "/recipients/order"
	rec := s.do(router, http.MethodPatch, path, map[string]any{
		"recipients": []map[string]any{
			{"recipient_id": recipient.ID.String(), "signing_order": 3},
		},
	}, true)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	recipients, ok := resp["recipients"].([]any)
	s.Require().True(ok)
	s.Require().Len(recipients, 1)
}

func (s *EnvelopeHandlerSuite) TestUpdateSigningOrderMalformedRecipientID() {
	router, _ := s.newRouter(s.T())

	path := "/envelopes/" + id.NewEnvelopeID().String() + "/recipients/order"
	rec := s.do(router, http.MethodPatch, path, map[string]any{
		"recipients": []map[string]any{
			{"recipient_id": "not-a-uuid", "signing_order": 1},
		},
	}, true)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestDeclineRecipient() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()
	recipient := workflow.Recipients[0]

	mockService.EXPECT().
		DeclineEnvelope(gomock.Any(), workflow.Envelope.ID, recipient.ID, "wrong terms").
		Return(recipient, nil)

	path := "/envelopes/" + workflow.Envelope.ID.String() + "/recipients/" + recipient.ID.String() + "/decline"
	rec := s.do(router, http.MethodPost, path, map[string]any{"reason": "wrong terms"}, true)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestVerifyAccessSkipsAuth() {
	router, mockService := s.newRouter(s.T())
	workflow := s.newWorkflow()
	recipient := workflow.Recipients[0].Redact()

	mockService.EXPECT().
		VerifyRecipientAccess(gomock.Any(), workflow.Envelope.ID, "one@example.com", "123456").
		Return(recipient, true, nil)

	path := "/envelopes/" + workflow.Envelope.ID.String() + "/verify-access"
	rec := s.do(router, http.MethodPost, path,
		map[string]any{"email": "one@example.com", "access_code": "123456"}, false)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(true, resp["verified"])
	got := resp["recipient"].(map[string]any)
	s.Equal(recipient.ID.String(), got["id"])
	s.Nil(got["access_code"])
}

func (s *EnvelopeHandlerSuite) TestVerifyAccessMiss() {
	router, mockService := s.newRouter(s.T())
	envelopeID := id.NewEnvelopeID()

	mockService.EXPECT().
		VerifyRecipientAccess(gomock.Any(), envelopeID, "one@example.com", "000000").
		Return(nil, false, nil)

	rec := s.do(router, http.MethodPost, "/envelopes/"+envelopeID.String()+"/verify-access",
		map[string]any{"email": "one@example.com", "access_code": "000000"}, false)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(false, resp["verified"])
	s.Nil(resp["recipient"])
}

// TestHandleListDirect drives the handler function itself with an injected
// caller, bypassing the router and auth middleware.
func (s *EnvelopeHandlerSuite) TestHandleListDirect() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockWorkflowService(ctrl)
	h := New(mockService, stubValidator{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mockService.EXPECT().
		ListEnvelopes(gomock.Any(), s.callerID, gomock.Nil(), 0, 0).
		Return(&service.EnvelopePage{}, nil)

	req := testutil.WithCaller(
		httptest.NewRequest(http.MethodGet, "/envelopes", nil),
		s.callerID.String(), "sender@example.com")
	rec := httptest.NewRecorder()
	h.handleList(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *EnvelopeHandlerSuite) TestVerifyAccessRequiresFields() {
	router, _ := s.newRouter(s.T())
	rec := s.do(router, http.MethodPost, "/envelopes/"+id.NewEnvelopeID().String()+"/verify-access",
		map[string]any{"email": "one@example.com"}, false)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}
