// Commande console : vérifie qu'un serveur répond et prépare la configuration.
//
//	console get-cart -key <uuid> [-host url] [-app nom] [-apikey clé]
//	console hash-secret -secret <secret>
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"chktr_back_end/internal/config"
	"chktr_back_end/internal/utils"
	"chktr_back_end/pkg/client"
)

// Panier de démonstration utilisé quand -key est omis
const sampleCartKey = "962b203d-c005-4ef9-ac8b-9e7b26f9216e"

func main() {
	log.SetFlags(0)
	_ = godotenv.Load(".env")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "get-cart":
		err = getCart(os.Args[2:])
	case "hash-secret":
		err = hashSecret(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: console get-cart|hash-secret [flags]")
}

func getCart(args []string) error {
	fs := flag.NewFlagSet("get-cart", flag.ExitOnError)
	host := fs.String("host", envOr("CHKTR_HOST", client.DefaultHost), "adresse du serveur")
	app := fs.String("app", "test", "nom de l'application")
	apiKey := fs.String("apikey", envOr("CHKTR_API_KEY", config.DefaultAPIKey), "clé d'API")
	key := fs.String("key", sampleCartKey, "clé du panier")
	timeout := fs.Duration("timeout", 10*time.Second, "délai maximum")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := uuid.Parse(*key)
	if err != nil {
		return fmt.Errorf("clé invalide %q: %w", *key, err)
	}

	c, err := client.New(*app, *apiKey, *host)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cart, err := c.GetCart(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Got Cart: %v\n", cart != nil)
	return nil
}

func hashSecret(args []string) error {
	fs := flag.NewFlagSet("hash-secret", flag.ExitOnError)
	secret := fs.String("secret", "", "secret client à hasher")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return fmt.Errorf("-secret est obligatoire")
	}

	hash, err := utils.HashSecret(*secret)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
