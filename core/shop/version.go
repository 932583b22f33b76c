package shop

// Version is the published service version
const Version = "1.2.0"
