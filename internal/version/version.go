package version

// Version is the bp-cli release version.
const Version = "0.3.0"
