// AngelaMos | 2026
// main.go

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/auth"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/config"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/middleware"
)

const usage = `usage:
  token keygen [-private keys/private.pem] [-public keys/public.pem]
  token mint -sub <id> [-role service] [-ttl 24h] [-config config.yaml]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = keygen(os.Args[2:])
	case "mint":
		err = mint(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func keygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	privatePath := fs.String("private", "keys/private.pem", "private key output path")
	publicPath := fs.String("public", "keys/public.pem", "public key output path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := auth.GenerateKeyPair(*privatePath, *publicPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", *privatePath, *publicPath)
	return nil
}

func mint(args []string) error {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	sub := fs.String("sub", "", "token subject (owner id or service name)")
	role := fs.String("role", middleware.RoleService, "user, admin or service")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *sub == "" {
		return fmt.Errorf("-sub is required")
	}

	jwtCfg, err := config.LoadJWT(*configPath)
	if err != nil {
		return err
	}

	manager, err := auth.NewJWTManager(jwtCfg)
	if err != nil {
		return err
	}

	token, err := manager.CreateAccessToken(middleware.AccessTokenClaims{
		UserID: *sub,
		Role:   *role,
	}, *ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
