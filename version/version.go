package version

// Version is the current release of filesig.
const Version = "0.1.0"
