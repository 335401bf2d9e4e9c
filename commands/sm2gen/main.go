package main

import (
	"fmt"
	"os"

	"github.com/aacfactory/afsm2/commands/sm2gen/base"
)

// main
// sm2gen --format={hex,base64} {dst path}
func main() {
	result, err := base.Generate(os.Args[1:])
	if err != nil {
		fmt.Println(fmt.Sprintf("%+v", err))
		return
	}
	fmt.Println("private_key:", result.PrivateKey)
	fmt.Println("public_key:", result.PublicKey)
	fmt.Println("sm2gen: generate succeed!")
}
