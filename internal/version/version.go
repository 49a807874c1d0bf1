package version

const VERSION = "v1.2.0"
