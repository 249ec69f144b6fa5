package preprocess

import "bytes"

// extractPageScans recovers embedded JPEG page images from a scanned PDF.
//
// Scanner-produced PDFs wrap one full-page JPEG (DCTDecode stream) per
// page. Rather than carrying a full PDF object parser for this one case,
// the raw bytes are scanned for DCTDecode stream objects and the JPEG
// payloads lifted out directly. Streams appear in page order in scanner
// output, so index order serves as page order.
func extractPageScans(data []byte) [][]byte {
	var scans [][]byte

	for pos := 0; pos < len(data); {
		marker := bytes.Index(data[pos:], []byte("/DCTDecode"))
		if marker < 0 {
			break
		}
		pos += marker + len("/DCTDecode")

		streamKW := bytes.Index(data[pos:], []byte("stream"))
		if streamKW < 0 {
			break
		}
		start := pos + streamKW + len("stream")

		// The stream keyword is followed by CRLF or LF.
		if start < len(data) && data[start] == '\r' {
			start++
		}
		if start < len(data) && data[start] == '\n' {
			start++
		}

		end := bytes.Index(data[start:], []byte("endstream"))
		if end < 0 {
			break
		}

		blob := bytes.TrimRight(data[start:start+end], "\r\n")
		if isJPEG(blob) {
			scans = append(scans, blob)
		}
		pos = start + end
	}

	return scans
}

// isJPEG checks the SOI marker.
func isJPEG(data []byte) bool {
	return len(data) > 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
}
