// Command devtoken issues identity tokens for local development, standing in
// for the hosted identity provider.
//
//	devtoken -u alice -s secretKey -t 60
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dmitrijs2005/sealtalk/internal/auth"
)

func main() {

	userID := flag.String("u", "", "user id")
	secret := flag.String("s", "secretKey", "identity token secret")
	minutes := flag.Int("t", 60, "validity (in minutes)")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-u is required")
	}

	tok, err := auth.IssueIdentityToken(*userID, []byte(*secret), time.Duration(*minutes)*time.Minute)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(tok)

}
