package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muurk/wled-backup/internal/backup"
	"github.com/muurk/wled-backup/internal/discovery"
)

func testRun() *backup.Run {
	start := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return &backup.Run{
		ID:           "3f2b8c1e-5d7a-4e29-9b61-0c4d8e2f7a10",
		StartedAt:    start,
		FinishedAt:   start.Add(6 * time.Second),
		SearchWindow: 5 * time.Second,
		OutDir:       "/backups/wled",
		Outcomes: []*backup.Outcome{
			{
				Device:     &discovery.Device{Instance: "wled-kitchen", IP: "192.168.1.10", Port: 80},
				Status:     backup.StatusSucceeded,
				Files:      []string{"a_cfg.json", "a_presets.json"},
				DeviceName: "Kitchen",
				Bytes:      3100,
			},
			{
				Device: &discovery.Device{Instance: "wled-desk", IP: "192.168.1.11", Port: 80},
				Status: backup.StatusFailed,
				Err:    errors.New("timeout"),
				Detail: "Device not responding (timeout)",
			},
		},
	}
}

func TestSummary_Plain(t *testing.T) {
	got := (&Summary{Run: testRun()}).Render()

	wants := []string{
		"1 of 2 devices failed",
		"Succeeded: 1",
		"Failed:    1",
		"Output:    /backups/wled",
		"Data:      3.1 kB",
		"Duration:  6s",
		"succeeded wled-kitchen (Kitchen) 192.168.1.10:80: 2 files, 3.1 kB",
		"failed wled-desk 192.168.1.11:80: Device not responding (timeout)",
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("Render() missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Error("plain rendering should not contain escape sequences")
	}
}

func TestSummary_Title(t *testing.T) {
	tests := []struct {
		name string
		run  *backup.Run
		want string
	}{
		{"empty", &backup.Run{}, "No WLED devices found"},
		{
			"all succeeded",
			&backup.Run{Outcomes: testRun().Outcomes[:1]},
			"Backed up 1 of 1 devices",
		},
		{"partial", testRun(), "1 of 2 devices failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (&Summary{Run: tt.run}).title(); got != tt.want {
				t.Errorf("title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummary_Styled(t *testing.T) {
	got := (&Summary{Run: testRun(), Styled: true, Width: 80}).Render()

	for _, want := range []string{"1 of 2 devices failed", FailureMarker, SuccessMarker, "Device not responding (timeout)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() missing %q\n%s", want, got)
		}
	}
	// Double border
	if !strings.Contains(got, "╔") {
		t.Errorf("styled rendering should be boxed\n%s", got)
	}
}

func TestRenderDevices(t *testing.T) {
	devices := []*discovery.Device{
		{Instance: "wled-kitchen", Hostname: "wled-kitchen.local.", IP: "192.168.1.10", Port: 80},
		{Instance: "wled-desk", IP: "fe80::1", Port: 80, Metadata: map[string]string{"ver": "0.14.0"}},
	}

	got := RenderDevices(devices, false)

	for _, want := range []string{"wled-kitchen", "192.168.1.10:80", "wled-kitchen.local.", "[fe80::1]:80", "v0.14.0", "2 device(s) found"} {
		if !strings.Contains(got, want) {
			t.Errorf("RenderDevices() missing %q\n%s", want, got)
		}
	}
}

func TestRenderDevices_Empty(t *testing.T) {
	if got := RenderDevices(nil, false); got != "No WLED devices found\n" {
		t.Errorf("RenderDevices(nil) = %q", got)
	}
}
