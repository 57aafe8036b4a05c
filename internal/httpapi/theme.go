package httpapi

import (
	"context"
	"net/http"

	"todo-list/internal/featureflag"
)

type themeResponse struct {
	DarkMode   bool              `json:"darkMode"`
	Classes    []string          `json:"classes"`
	Properties map[string]string `json:"properties"`
}

type refreshResponse struct {
	Refreshed bool `json:"refreshed"`
	themeResponse
}

type flagsResponse struct {
	State       string            `json:"state"`
	Initialized bool              `json:"initialized"`
	Flags       featureflag.Flags `json:"flags"`
}

func (a *api) currentTheme() themeResponse {
	return themeResponse{
		DarkMode:   a.theme.IsDarkMode(),
		Classes:    a.doc.Classes(),
		Properties: a.doc.Properties(),
	}
}

func (a *api) getTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.currentTheme())
}

func (a *api) toggleTheme(w http.ResponseWriter, r *http.Request) {
	a.theme.ToggleDarkMode()
	writeJSON(w, http.StatusOK, a.currentTheme())
}

func (a *api) resetTheme(w http.ResponseWriter, r *http.Request) {
	a.theme.ResetToSystemPreference()
	writeJSON(w, http.StatusOK, a.currentTheme())
}

func (a *api) refreshTheme(w http.ResponseWriter, r *http.Request) {
	// The flag service bounds the fetch with its own timeout, which may be
	// longer than the request timeout.
	ok := a.theme.RefreshFromRemoteConfig(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, refreshResponse{Refreshed: ok, themeResponse: a.currentTheme()})
}

func (a *api) applyColors(w http.ResponseWriter, r *http.Request) {
	var colors map[string]string
	if err := decode(r, &colors); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.theme.ApplyCustomColors(colors); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.currentTheme())
}

func (a *api) getFlags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, flagsResponse{
		State:       a.flags.State().String(),
		Initialized: a.flags.IsConfigInitialized(),
		Flags:       a.flags.Flags(),
	})
}
