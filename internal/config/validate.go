package config

import "fmt"

// ParseEnvironment validates a raw environment argument against the closed
// set of environments. The returned error names the invalid value and the
// allowed set so the caller can surface it verbatim.
func ParseEnvironment(raw string) (Environment, error) {
	for _, env := range Environments {
		if raw == string(env) {
			return env, nil
		}
	}
	return "", fmt.Errorf("invalid environment %q (allowed: %s, %s, %s)", raw, EnvDev, EnvTest, EnvProd)
}

// ParseUseCase validates a raw use-case argument against the closed set of
// selectors, including the "all" meta-selector.
func ParseUseCase(raw string) (UseCase, error) {
	if raw == string(UseCaseAll) {
		return UseCaseAll, nil
	}
	for _, uc := range UseCases {
		if raw == string(uc) {
			return uc, nil
		}
	}
	return "", fmt.Errorf("invalid use case %q (allowed: %s, %s, %s)", raw, UseCase1, UseCase2, UseCaseAll)
}
