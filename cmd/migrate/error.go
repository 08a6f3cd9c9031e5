package main

import "errors"

var errDBURLMissing = errors.New("DB_URL not set in environment")
