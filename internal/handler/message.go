package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	"supportdesk/internal/autoreply"
	"supportdesk/internal/service"
)

// SendMessage handles POST /send_message
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /send_message] Request received from %s", r.RemoteAddr)

	// リクエストボディサイズを1MBに制限
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var in service.Inbound
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Printf("[POST /send_message] ❌ Bad Request: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Invalid request body"})
		return
	}

	result, err := h.Service.SendMessage(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			log.Printf("[POST /send_message] ❌ Bad Request: missing sender or text")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Missing sender or text"})
			return
		}
		log.Printf("[POST /send_message] ❌ Store error: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Failed to send message"})
		return
	}

	resp := map[string]interface{}{
		"status": "success",
		"data":   result.Message,
	}
	if result.ReplyErr != nil {
		// 部分的成功: 元メッセージは保存・配信済み、自動返信のみ失敗
		log.Printf("[POST /send_message] ⚠️  Partial success for message ID=%s: %v", result.Message.ID, result.ReplyErr)
		resp["auto_reply_error"] = "reply not available"
	} else {
		resp["auto_reply"] = result.Reply.Text
	}

	log.Printf("[POST /send_message] ✅ Created message: ID=%s, Sender=%q", result.Message.ID, result.Message.Sender)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// GetMessages handles GET /api/messages
// 全メッセージをタイムスタンプ昇順で返し、urgentフラグを付与する
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/messages] Request received from %s", r.RemoteAddr)

	msgList, err := h.Service.ListMessages(r.Context())
	if err != nil {
		log.Printf("[GET /api/messages] ❌ Store error: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Database error"})
		return
	}

	log.Printf("[GET /api/messages] ✅ Returned %d messages", len(msgList))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgList)
}

// GetCannedMessages handles GET /canned_messages
func (h *Handler) GetCannedMessages(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /canned_messages] Request received from %s", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"canned_messages": autoreply.CannedMessages(),
	})
}

// ImportCSV handles POST /import_csv
// multipart の file フィールドを優先し、無ければ設定済みのCSVパスを読む
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /import_csv] Request received from %s", r.RemoteAddr)

	src, name, err := h.importSource(r)
	if err != nil {
		log.Printf("[POST /import_csv] ❌ CSV source error: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "CSV file not available"})
		return
	}
	defer src.Close()

	result, err := h.Service.ImportCSV(r.Context(), src)
	if err != nil {
		log.Printf("[POST /import_csv] ❌ Import error: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": "Invalid CSV file"})
		return
	}

	log.Printf("[POST /import_csv] ✅ Imported %d rows from %s (%d errors)", result.Imported, name, len(result.Errors))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// importSource picks the uploaded file when present, the configured
// server-side CSV otherwise.
func (h *Handler) importSource(r *http.Request) (io.ReadCloser, string, error) {
	if file, header, err := r.FormFile("file"); err == nil {
		return file, header.Filename, nil
	}
	f, err := os.Open(h.Config.CSVImportPath)
	if err != nil {
		return nil, "", err
	}
	return f, h.Config.CSVImportPath, nil
}
