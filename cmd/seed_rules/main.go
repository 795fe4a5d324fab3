package main

import (
	"flag"

	"whatsapp-crm/internal/logging"
	"whatsapp-crm/internal/policy"
)

// Writes the built-in policy rule set to a YAML file so operators can edit it
// and point POLICY_RULES_FILE at the result.
func main() {
	out := flag.String("out", "policy_rules.yaml", "output file path")
	flag.Parse()

	log := logging.New("seed-rules")

	if err := policy.SaveFile(*out, policy.DefaultRuleSet()); err != nil {
		log.WithError(err).Fatal("Failed to write rules file")
	}
	log.WithField("path", *out).Info("Wrote default policy rules")
}
