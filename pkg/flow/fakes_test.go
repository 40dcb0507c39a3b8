package flow

import (
	"context"
	"errors"
	"io"
	"log"
)

// fakeCompletion replays scripted responses in call order. When the
// script runs out, the last entry repeats. A non-nil err fails every call.
type fakeCompletion struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeCompletion) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("fakeCompletion: no scripted response")
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

// fakeRetrieval serves canned records for every search shape
type fakeRetrieval struct {
	searchResults []CaseRecord
	filterResults []CaseRecord
	byID          map[string]CaseRecord
	questions     []string

	searchErr error
	filterErr error
	lookupErr error
}

func (f *fakeRetrieval) SearchCases(_ context.Context, _ string, _ int) ([]CaseRecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeRetrieval) FilterCasesByIssueType(_ context.Context, _, _ string, _ int) ([]CaseRecord, error) {
	if f.filterErr != nil {
		return nil, f.filterErr
	}
	return f.filterResults, nil
}

func (f *fakeRetrieval) GetCaseByID(_ context.Context, id string) (*CaseRecord, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if r, ok := f.byID[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeRetrieval) RelatedQuestions(_ context.Context, _, _ string) ([]string, error) {
	return f.questions, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func loginCase(id string) CaseRecord {
	return CaseRecord{
		ID:                 id,
		IssueType:          "login_failure",
		IssueName:          "Login Failure",
		CaseName:           "Password reset loop",
		Description:        "User keeps getting sent back to the password reset page.",
		Symptoms:           []string{"redirected to reset page", "no confirmation email"},
		QuestionsToAsk:     []string{"Which browser are you using?", "Did you receive a reset email?"},
		SolutionSteps:      []string{"Clear browser cookies", "Request a new reset link", "Check the spam folder"},
		EscalationTriggers: []string{"account is locked", "reset email never arrives"},
		Score:              0.9,
	}
}
