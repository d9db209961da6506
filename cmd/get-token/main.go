// Command get-token walks through the Gmail OAuth consent flow and prints
// the refresh token used by the inbox syncer and the draft sender.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

func main() {
	clientID := os.Getenv("GMAIL_CLIENT_ID")
	clientSecret := os.Getenv("GMAIL_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		logrus.Fatal("Please set GMAIL_CLIENT_ID and GMAIL_CLIENT_SECRET environment variables")
	}

	redirectURL := os.Getenv("GMAIL_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:8080/callback"
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope, gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
	}

	authURL := cfg.AuthCodeURL("email-agent", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Open this link in your browser:\n%s\n", authURL)
	fmt.Println("\nAfter consenting you are redirected; copy the 'code' query parameter.")
	fmt.Print("\nAuthorization code: ")

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		logrus.Fatalf("Failed to read authorization code: %v", err)
	}

	tok, err := cfg.Exchange(context.Background(), strings.TrimSpace(code))
	if err != nil {
		logrus.Fatalf("Unable to exchange authorization code: %v", err)
	}
	if tok.RefreshToken == "" {
		logrus.Fatal("No refresh token returned; revoke the app's access and try again")
	}

	fmt.Println("\nAdd the refresh token to your environment:")
	fmt.Printf("export GMAIL_REFRESH_TOKEN=%q\n", tok.RefreshToken)
}
