package internal

// Version is the current version of pdfbabel
const Version = "0.2.0"
