// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

// WriteTestPDFStreams exposes the PDF builder to the external test package.
var WriteTestPDFStreams = writeTestPDFStreams

// TdPage is a page whose lines are placed with Td inside one text object.
const TdPage = tdPage
