package constants

const USER_AGENT = "lantern/0.1.0 (+https://github.com/lantern-dev/lantern)"
