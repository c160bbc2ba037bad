package config

import (
	"crypto/subtle"
	"strings"
)

// AppKeyRegistry associe un nom d'application à sa clé d'API.
type AppKeyRegistry map[string]string

// ParseAppKeys lit "app1:key1,app2:key2". Les entrées mal formées sont ignorées.
func ParseAppKeys(raw string) AppKeyRegistry {
	reg := AppKeyRegistry{}
	for _, pair := range splitList(raw) {
		app, key, ok := strings.Cut(pair, ":")
		app, key = strings.TrimSpace(app), strings.TrimSpace(key)
		if !ok || app == "" || key == "" {
			continue
		}
		reg[app] = key
	}
	return reg
}

// Lookup retrouve l'application propriétaire d'une clé.
func (r AppKeyRegistry) Lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for app, k := range r {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return app, true
		}
	}
	return "", false
}

// ClientRegistry associe un client OAuth2 (client_credentials) au hash Argon2id de son secret.
type ClientRegistry map[string]string

// ParseClients lit "client=<hash>;client2=<hash>". Le ';' sépare car les hash Argon2 contiennent des ','.
func ParseClients(raw string) ClientRegistry {
	reg := ClientRegistry{}
	for _, pair := range strings.Split(raw, ";") {
		id, hash, ok := strings.Cut(strings.TrimSpace(pair), "=")
		id, hash = strings.TrimSpace(id), strings.TrimSpace(hash)
		if !ok || id == "" || hash == "" {
			continue
		}
		reg[id] = hash
	}
	return reg
}
