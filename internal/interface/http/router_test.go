package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/heartcheck/internal/domain/assessment"
	"github.com/yanqian/heartcheck/internal/domain/auth"
	"github.com/yanqian/heartcheck/internal/domain/explainer"
	"github.com/yanqian/heartcheck/internal/domain/report"
	"github.com/yanqian/heartcheck/internal/domain/risk"
	"github.com/yanqian/heartcheck/internal/infra/assessrepo"
	"github.com/yanqian/heartcheck/internal/infra/clinicianrepo"
	"github.com/yanqian/heartcheck/internal/infra/config"
	"github.com/yanqian/heartcheck/internal/infra/reportstore"
	"github.com/yanqian/heartcheck/internal/infra/sharestore"
)

func newTestServer(t *testing.T) *http.Server {
	t.Helper()
	logger := slog.Default()

	assessSvc := assessment.NewService(assessment.Config{HistoryLimit: 50, SimilarLimit: 5}, assessrepo.NewMemoryRepository(), logger)
	reportSvc := report.NewService(report.Config{ShareTTL: time.Hour}, reportstore.NewMemoryStorage(), sharestore.NewMemoryStore(), logger)
	explainSvc := explainer.NewService(explainer.Config{
		Model:           "gpt-4o-mini",
		Prompt:          "explain",
		MaxPromptTokens: 2048,
		MaxNarrativeLen: 2000,
	}, nil, logger)
	authSvc := auth.NewService(auth.Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, clinicianrepo.NewMemoryRepository(), logger)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}

	handler := NewHandler(assessSvc, reportSvc, explainSvc, logger)
	authHandler := NewAuthHandler(authSvc, "")
	return NewRouter(cfg, handler, authHandler, authSvc)
}

func validParamsJSON() map[string]any {
	return map[string]any{
		"age":              55,
		"sex":              "male",
		"region":           "moderate",
		"smoking":          "smoker",
		"systolicBp":       140,
		"totalCholesterol": 6.1,
		"cholesterolUnit":  "mmol/L",
		"diabetes":         false,
	}
}

func doJSON(t *testing.T, server *http.Server, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	server.Handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, server, http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAssessAnonymous(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, server, http.MethodPost, "/api/v1/assessments", map[string]any{
		"parameters": validParamsJSON(),
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload assessment.Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Empty(t, payload.ID)
	require.Greater(t, payload.Result.RiskPercentage, 0.0)
	require.NotEmpty(t, payload.Result.Recommendations)
}

func TestAssessValidationProblemsListed(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, server, http.MethodPost, "/api/v1/assessments", map[string]any{
		"parameters": map[string]any{
			"age":        30,
			"systolicBp": 60,
		},
	}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var payload struct {
		Error struct {
			Code    string   `json:"code"`
			Message string   `json:"message"`
			Details []string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Equal(t, "validation_failed", payload.Error.Code)
	require.Greater(t, len(payload.Error.Details), 1)
}

func TestWhatIfQuitSmoking(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, server, http.MethodPost, "/api/v1/assessments/whatif", map[string]any{
		"baseline": validParamsJSON(),
		"overrides": map[string]any{
			"smoking": "non-smoker",
		},
	}, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload assessment.WhatIfResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Less(t, payload.Adjusted.RiskPercentage, payload.Baseline.RiskPercentage)
	require.Less(t, payload.RiskDelta, 0.0)
}

func TestReportRenderAndShare(t *testing.T) {
	server := newTestServer(t)

	params := risk.Parameters{
		Age:              62,
		Sex:              risk.SexFemale,
		Region:           risk.RegionLow,
		Smoking:          risk.NonSmoker,
		SystolicBP:       128,
		TotalCholesterol: 5.2,
		CholesterolUnit:  risk.UnitMmolPerL,
	}
	result := risk.Calculate(params)

	renderResp := doJSON(t, server, http.MethodPost, "/api/v1/reports", report.Request{Parameters: params, Result: result}, nil)
	require.Equal(t, http.StatusOK, renderResp.Code)
	var rendered report.Report
	require.NoError(t, json.Unmarshal(renderResp.Body.Bytes(), &rendered))
	require.Contains(t, rendered.Text, "RESULT")

	shareResp := doJSON(t, server, http.MethodPost, "/api/v1/reports/share", report.Request{Parameters: params, Result: result}, nil)
	require.Equal(t, http.StatusOK, shareResp.Code)
	var link report.ShareLink
	require.NoError(t, json.Unmarshal(shareResp.Body.Bytes(), &link))
	require.NotEmpty(t, link.Token)

	resolved := doJSON(t, server, http.MethodGet, "/api/v1/reports/shared/"+link.Token, nil, nil)
	require.Equal(t, http.StatusOK, resolved.Code)
	require.Contains(t, resolved.Body.String(), "RESULT")
}

func TestSharedReportUnknownToken(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, server, http.MethodGet, "/api/v1/reports/shared/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestExplainDisabledWithoutClient(t *testing.T) {
	server := newTestServer(t)
	params := risk.Parameters{
		Age:              55,
		Sex:              risk.SexMale,
		Region:           risk.RegionModerate,
		Smoking:          risk.Smoker,
		SystolicBP:       140,
		TotalCholesterol: 6.1,
		CholesterolUnit:  risk.UnitMmolPerL,
	}
	resp := doJSON(t, server, http.MethodPost, "/api/v1/assessments/explain", explainer.Request{
		Parameters: params,
		Result:     risk.Calculate(params),
	}, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHistoryRequiresToken(t *testing.T) {
	server := newTestServer(t)
	resp := doJSON(t, server, http.MethodGet, "/api/v1/history", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthedAssessmentFlow(t *testing.T) {
	server := newTestServer(t)

	registerResp := doJSON(t, server, http.MethodPost, "/api/v1/auth/register", auth.RegisterRequest{
		Email:       "cardio@example.org",
		Password:    "str0ng-password",
		DisplayName: "Cardio Doc",
	}, nil)
	require.Equal(t, http.StatusCreated, registerResp.Code)

	loginResp := doJSON(t, server, http.MethodPost, "/api/v1/auth/login", auth.LoginRequest{
		Email:    "cardio@example.org",
		Password: "str0ng-password",
	}, nil)
	require.Equal(t, http.StatusOK, loginResp.Code)
	var login auth.LoginResponse
	require.NoError(t, json.Unmarshal(loginResp.Body.Bytes(), &login))
	headers := map[string]string{"Authorization": "Bearer " + login.Token}

	assessResp := doJSON(t, server, http.MethodPost, "/api/v1/assessments", map[string]any{
		"parameters": validParamsJSON(),
	}, headers)
	require.Equal(t, http.StatusOK, assessResp.Code)
	var assessed assessment.Response
	require.NoError(t, json.Unmarshal(assessResp.Body.Bytes(), &assessed))
	require.NotEmpty(t, assessed.ID)

	historyResp := doJSON(t, server, http.MethodGet, "/api/v1/history", nil, headers)
	require.Equal(t, http.StatusOK, historyResp.Code)
	var history struct {
		Items []assessment.Record `json:"items"`
	}
	require.NoError(t, json.Unmarshal(historyResp.Body.Bytes(), &history))
	require.Len(t, history.Items, 1)
	require.Equal(t, assessed.ID, history.Items[0].ID)

	similarPath := fmt.Sprintf("/api/v1/history/%s/similar", assessed.ID)
	similarResp := doJSON(t, server, http.MethodGet, similarPath, nil, headers)
	require.Equal(t, http.StatusOK, similarResp.Code)

	profileResp := doJSON(t, server, http.MethodGet, "/api/v1/auth/profile", nil, headers)
	require.Equal(t, http.StatusOK, profileResp.Code)
	var profile auth.ClinicianView
	require.NoError(t, json.Unmarshal(profileResp.Body.Bytes(), &profile))
	require.Equal(t, "Cardio Doc", profile.DisplayName)
}
