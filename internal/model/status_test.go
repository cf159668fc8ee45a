package model

import "testing"

func TestStatus_IsActive(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusQueued, false},
		{StatusPaused, false},
		{StatusExtracting, true},
		{StatusDownloading, true},
		{StatusPostprocessing, true},
		{StatusFinished, false},
		{StatusError, false},
		{StatusCancelled, false},
	}

	for _, test := range tests {
		result := test.status.IsActive()
		if result != test.expected {
			t.Errorf("Status(%s).IsActive() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusQueued, false},
		{StatusPaused, false},
		{StatusDownloading, false},
		{StatusFinished, true},
		{StatusError, true},
		{StatusCancelled, true},
	}

	for _, test := range tests {
		result := test.status.IsTerminal()
		if result != test.expected {
			t.Errorf("Status(%s).IsTerminal() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestStatus_IsStartable(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusQueued, true},
		{StatusPaused, true},
		{StatusError, true},
		{StatusCancelled, true},
		{StatusFinished, false},
		{StatusDownloading, false},
		{StatusExtracting, false},
	}

	for _, test := range tests {
		result := test.status.IsStartable()
		if result != test.expected {
			t.Errorf("Status(%s).IsStartable() = %v, expected %v", test.status, result, test.expected)
		}
	}
}

func TestStatus_IsValid(t *testing.T) {
	if !StatusPostprocessing.IsValid() {
		t.Error("postprocessing should be valid")
	}
	if Status("Completed").IsValid() {
		t.Error("unknown status should not be valid")
	}
}
