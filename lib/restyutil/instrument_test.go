package restyutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	lock  sync.Mutex
	files map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.files[id] = contents
}

func TestDumpExchangesRedactsSecrets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "secret-cookie"})
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("welcome"))
	}))
	defer server.Close()

	output := &memoryOutput{files: map[string]string{}}
	client := resty.New().SetBaseURL(server.URL)
	DumpExchanges(client, output, "MotDePasse")

	_, err := client.R().
		SetFormData(map[string]string{
			"Identifiant": "alice",
			"MotDePasse":  "hunter2",
		}).
		Post("/login")
	require.NoError(t, err)

	require.Len(t, output.files, 1)
	contents := output.files["0001_POST.txt"]
	require.Contains(t, contents, "Identifiant=alice")
	require.Contains(t, contents, "MotDePasse=%3CREDACTED%3E")
	require.Contains(t, contents, "welcome")
	require.False(t, strings.Contains(contents, "hunter2"))
	require.False(t, strings.Contains(contents, "secret-cookie"))
}

func TestDumpExchangesNilOutput(t *testing.T) {
	client := resty.New()
	DumpExchanges(client, nil)
}
