package cmd

import (
	"fmt"
)

const banner = `
                _                _   _   _
 __      _____| |__  ___  ___ _| |_| |_(_)_ __   __ _ ___
 \ \ /\ / / _ \ '_ \/ __|/ _ \_  __|  _| | '_ \ / _` + "`" + ` / __|
  \ V  V /  __/ |_) \__ \  __/ | |_| |_| | | | | (_| \__ \
   \_/\_/ \___|_.__/|___/\___|  \__|\__|_|_| |_|\__, |___/
                                                |___/
`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Remote device settings - Version %s\x1b[0m\n\n", Version)
}
