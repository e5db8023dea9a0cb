package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"linkfeed/pkg/auth"
	"linkfeed/pkg/logger"
)

var authManualLogin bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LinkedIn sessions",
	Long: `Manage stored LinkedIn sessions.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your cookies or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and store a session",
	Long: `Open a browser window, wait for you to log into LinkedIn, and
store the resulting session cookies securely.

With --manual the cookies are entered by hand instead:
1. Log into LinkedIn in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies > https://www.linkedin.com
4. Copy the li_at and JSESSIONID values`,
	Example: `  # Browser login
  linkfeed auth login myaccount

  # Enter cookies manually
  linkfeed auth login myaccount --manual`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:     "logout <username>",
	Short:   "Remove a stored session",
	Args:    cobra.ExactArgs(1),
	RunE:    runLogout,
	Example: `  linkfeed auth logout myaccount`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE:  runAuthList,
}

var statusCmd = &cobra.Command{
	Use:   "status [username]",
	Short: "Show whether a stored session is still valid",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&authManualLogin, "manual", false, "enter cookies manually instead of a browser login")
}

func runLogin(cmd *cobra.Command, args []string) error {
	// config is loaded only to initialize logging
	if _, err := loadConfig(map[string]interface{}{}); err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}

	var session *auth.Session
	if authManualLogin {
		session, err = manualLogin(username)
	} else {
		session, err = browserLogin(username)
	}
	if err != nil {
		return err
	}

	if err := manager.Store(session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	fmt.Printf("Session stored for %q (valid until %s)\n",
		session.Username, session.ExpiresAt().Format("2006-01-02"))
	return nil
}

func browserLogin(username string) (*auth.Session, error) {
	fmt.Println("Opening a browser window. Log into LinkedIn to continue...")

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Minute)
	defer cancel()

	login := auth.NewBrowserLogin(logger.GetLogger())
	session, err := login.Login(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("browser login failed: %w", err)
	}
	return session, nil
}

func manualLogin(username string) (*auth.Session, error) {
	reader := bufio.NewReader(os.Stdin)

	if username == "" {
		fmt.Print("Account name: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read account name: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return nil, fmt.Errorf("account name is required")
	}

	// cookies are read without echo, they are credentials
	fmt.Print("li_at cookie: ")
	liAt, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read li_at cookie: %w", err)
	}

	fmt.Print("JSESSIONID cookie: ")
	jsession, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read JSESSIONID cookie: %w", err)
	}

	fmt.Print("User agent (press Enter for default): ")
	userAgent, _ := reader.ReadString('\n')

	session := auth.NewSession(username, map[string]string{
		"li_at":      strings.TrimSpace(string(liAt)),
		"JSESSIONID": strings.TrimSpace(string(jsession)),
	}, strings.TrimSpace(userAgent))

	if err := session.Validate(); err != nil {
		return nil, err
	}
	return session, nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	var session *auth.Session
	if len(args) > 0 {
		session, err = manager.Retrieve(strings.TrimSpace(args[0]))
	} else {
		session, err = manager.RetrieveDefault()
	}
	if err != nil {
		return err
	}

	fmt.Printf("Account:    %s\n", session.Username)
	fmt.Printf("Saved:      %s\n", session.SavedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Expires:    %s\n", session.ExpiresAt().Format("2006-01-02 15:04"))
	if session.IsValid() {
		fmt.Println("Status:     valid")
	} else {
		fmt.Println("Status:     expired, run 'linkfeed auth login' to refresh")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	username := strings.TrimSpace(args[0])
	if err := manager.Delete(username); err != nil {
		return fmt.Errorf("failed to remove session for %q: %w", username, err)
	}

	fmt.Printf("Session removed for %q\n", username)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	sessions, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No stored sessions. Run 'linkfeed auth login' to add one.")
		return nil
	}

	for _, s := range sessions {
		state := "valid"
		if !s.IsValid() {
			state = "expired"
		}
		fmt.Printf("  %-20s saved %s  %s\n",
			s.Username, s.SavedAt.Format("2006-01-02 15:04"), state)
	}
	return nil
}
