package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const characters = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID returns an opaque internal id such as "c1x9k2m0q8z7w3e5".
func GenerateID(prefix string) (string, error) {
	id, err := gonanoid.Generate(characters, 15)
	if err != nil {
		return "", err
	}

	return prefix + id, nil
}
