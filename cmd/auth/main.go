// Package main provides the cloud drive authorization tool.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"golang.org/x/oauth2"

	"github.com/osa030/skystream/internal/infra/auth"
)

var (
	app          = kingpin.New("skystream-auth", "Cloud drive authorization tool for SkyStream")
	clientID     = app.Flag("client-id", "OAuth2 Client ID").Envar("DRIVE_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "OAuth2 Client Secret").Envar("DRIVE_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()

	consent *auth.Consent
	ch      = make(chan *oauth2.Token)
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", *port)

	var err error
	consent, err = auth.NewConsent(*clientID, *clientSecret, redirectURI)
	if err != nil {
		log.Fatalf("Failed to create consent flow: %v", err)
	}

	http.HandleFunc("/callback", completeAuth)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	fmt.Println("Please visit the following URL to authorize SkyStream:")
	fmt.Println("")
	fmt.Println(consent.AuthURL())
	fmt.Println("")
	fmt.Println("Waiting for authorization...")

	token := <-ch

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown server: %v", err)
	}

	fmt.Println("")
	fmt.Println("=== Authorization Successful ===")
	fmt.Println("")
	fmt.Println("Add this to your config.yaml:")
	fmt.Println("")
	fmt.Println("drive:")
	fmt.Printf("  client_id: \"%s\"\n", *clientID)
	fmt.Printf("  refresh_token: \"%s\"\n", token.RefreshToken)
	fmt.Println("")
	fmt.Println("Or set as environment variable:")
	fmt.Printf("export DRIVE_REFRESH_TOKEN=\"%s\"\n", token.RefreshToken)
}

func completeAuth(w http.ResponseWriter, r *http.Request) {
	token, err := consent.Exchange(r.Context(), r.FormValue("state"), r.FormValue("code"))
	if err != nil {
		http.Error(w, "Authorization failed", http.StatusForbidden)
		log.Printf("Authorization failed: %v", err)
		return
	}

	fmt.Fprint(w, "Authorization complete. You can close this window and return to the terminal.\n")
	ch <- token
}
