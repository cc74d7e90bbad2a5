package sections

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dalemusser/seoadmin/internal/app/system/auth"
	"github.com/dalemusser/seoadmin/internal/app/system/backend"
	"github.com/dalemusser/seoadmin/internal/app/system/inputval"
	sectionsys "github.com/dalemusser/seoadmin/internal/app/system/sections"
	"github.com/dalemusser/seoadmin/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxImageSize = 8 << 20 // 8MB

var (
	errImageTooLarge = errors.New("image is larger than 8 MB")
	errNotAnImage    = errors.New("file is not an image")
)

var indexedField = regexp.MustCompile(`^(services|faqs)\[(\d+)\]\[([a-z_]+)\]$`)

// indexed collects list[i][field] inputs into rows ordered by index. Gaps
// left by removed rows are closed.
func indexed(form url.Values, list string) []map[string]string {
	rows := map[int]map[string]string{}
	for key, vals := range form {
		m := indexedField.FindStringSubmatch(key)
		if m == nil || m[1] != list || len(vals) == 0 {
			continue
		}
		i, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if rows[i] == nil {
			rows[i] = map[string]string{}
		}
		rows[i][m[3]] = vals[0]
	}
	idx := make([]int, 0, len(rows))
	for i := range rows {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]map[string]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}

// readUpload returns the chosen image, or nil when none was chosen. The file
// is buffered so the request's temporary files can go away before the save.
func readUpload(r *http.Request) (*backend.FileUpload, error) {
	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageSize {
		return nil, errImageTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errNotAnImage
	}
	return &backend.FileUpload{
		Filename:    uuid.NewString()[:8] + strings.ToLower(filepath.Ext(hdr.Filename)),
		ContentType: contentType,
		Content:     bytes.NewReader(data),
	}, nil
}

// readDraft builds the draft for kind from the submitted form. Field messages
// for input that cannot be sent are returned keyed by input name.
func readDraft(r *http.Request, kind models.SectionKind) (sectionsys.Draft, map[string]string) {
	form := r.PostForm
	get := func(k string) string { return strings.TrimSpace(form.Get(k)) }
	problems := map[string]string{}

	switch kind {
	case models.SectionWhyChoose:
		return sectionsys.WhyChooseDraft{WhyChoose: models.WhyChoose{
			Title:  get("title"),
			Points: form["points[]"],
		}}, problems

	case models.SectionAboutUs:
		return sectionsys.AboutUsDraft{AboutUs: models.AboutUs{
			Description: form.Get("description"),
			MapEmbed:    get("map_embed"),
		}}, problems

	case models.SectionServices:
		var items []models.ServiceItem
		for _, row := range indexed(form, "services") {
			items = append(items, models.ServiceItem{
				Title:       strings.TrimSpace(row["title"]),
				Description: row["description"],
			})
		}
		return sectionsys.ServicesDraft{Items: items}, problems

	case models.SectionFaq:
		var items []models.FaqItem
		for _, row := range indexed(form, "faqs") {
			items = append(items, models.FaqItem{
				Question: strings.TrimSpace(row["question"]),
				Answer:   row["answer"],
			})
		}
		return sectionsys.FaqDraft{Items: items}, problems

	case models.SectionTransparentPricing:
		d := sectionsys.PricingDraft{TransparentPricing: models.TransparentPricing{
			Title:       get("title"),
			Description: form.Get("description"),
			ButtonText:  get("button_text"),
			Link:        get("link"),
		}}
		if l := d.Link; l != "" && !strings.HasPrefix(l, "/") && !inputval.IsValidHTTPURL(l) {
			problems["link"] = "Link must be a full URL or a path starting with /."
		}
		return d, problems

	case models.SectionHero:
		d := sectionsys.HeroDraft{Hero: models.Hero{
			Title:    get("title"),
			SubTitle: get("sub_title"),
		}}
		up, err := readUpload(r)
		if err != nil {
			problems["image"] = uploadMessage(err)
		}
		d.Upload = up
		return d, problems

	case models.SectionServicesBackground:
		up, err := readUpload(r)
		if err != nil {
			problems["image"] = uploadMessage(err)
		}
		if up == nil && err == nil {
			problems["image"] = "Choose an image to upload."
		}
		return sectionsys.ServicesBackgroundDraft{Upload: up}, problems
	}
	return nil, problems
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, errImageTooLarge):
		return "The image must be 8 MB or smaller."
	case errors.Is(err, errNotAnImage):
		return "The file must be a PNG, JPEG, GIF or WebP image."
	}
	return "The image could not be read."
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(r)
	kind, known := models.ParseSectionKind(chi.URLParam(r, "kind"))
	if !ok || !known || !h.allowed(kind) {
		h.errPages.NotFound(w, r)
		return
	}

	var perr error
	if kind.Multipart() {
		perr = r.ParseMultipartForm(maxImageSize + 1<<20)
	} else {
		perr = r.ParseForm()
	}
	if perr != nil {
		h.errLog.Log(r, "parse section form", perr)
		http.Error(w, "could not read the form", http.StatusBadRequest)
		return
	}

	st := sectionsys.ParseState(r.PostForm.Get("section_id"))
	draft, problems := readDraft(r, kind)
	if len(problems) > 0 {
		h.saveFailed(w, r, id, kind, st, draft, http.StatusUnprocessableEntity, "Please correct the highlighted fields.", problems)
		return
	}

	saver := sectionsys.NewSaver(h.api, id, h.pageType)
	next, err := saver.Save(r.Context(), auth.Credentials(r), st, draft)
	if err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		if errors.Is(err, sectionsys.ErrNotLoaded) {
			h.saveFailed(w, r, id, kind, st, draft, http.StatusConflict,
				"This section was not loaded, so saving could overwrite it. Reload the page and try again.", nil)
			return
		}
		h.errLog.Backend(r, "save section", err)
		status := http.StatusBadGateway
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.HasFields() {
			status = http.StatusUnprocessableEntity
			problems = apiErr.FieldErrors()
		}
		h.saveFailed(w, r, id, kind, st, draft, status, backend.UserMessage(err, "Could not save the section."), problems)
		return
	}

	h.logger.Info("section saved",
		zap.Int64("page_id", id),
		zap.String("section", string(kind)),
		zap.String("state", next.String()))
	http.Redirect(w, r, h.savedURL(id, kind, next), http.StatusSeeOther)
}

// savedURL points back at kind's panel. A known section id rides along in
// the query so the next form keeps it even when a read lags the write.
func (h *Handler) savedURL(id int64, kind models.SectionKind, next sectionsys.State) string {
	q := url.Values{"notice": {"updated"}}
	if _, ok := next.ID(); ok {
		q.Set("saved", string(kind))
		q.Set("section_id", next.FormValue())
	}
	return h.editorURL(id) + "?" + q.Encode() + "#section-" + string(kind)
}

// carriedState reads the state left in the query by savedURL.
func carriedState(r *http.Request) (models.SectionKind, sectionsys.State, bool) {
	q := r.URL.Query()
	kind, ok := models.ParseSectionKind(q.Get("saved"))
	if !ok {
		return "", sectionsys.State{}, false
	}
	st := sectionsys.ParseState(q.Get("section_id"))
	if _, known := st.ID(); !known {
		return "", sectionsys.State{}, false
	}
	return kind, st, true
}

// saveFailed re-renders the editor with the submitted values of kind kept and
// the other sections reloaded.
func (h *Handler) saveFailed(w http.ResponseWriter, r *http.Request, id int64, kind models.SectionKind, st sectionsys.State, draft sectionsys.Draft, status int, msg string, fields map[string]string) {
	page, snap, err := h.load(r, id)
	if err != nil {
		h.loadFailed(w, r, err)
		return
	}
	vm := h.newEditorVM(r, id, page, snap)
	if p := vm.panel(kind); p != nil {
		p.State = st.FormValue()
		p.SaveError = msg
		p.Fields = fields
		p.keep(draft)
	}
	h.render(w, r, status, vm)
}

// keep shows the submitted values instead of the stored ones.
func (p *Panel) keep(d sectionsys.Draft) {
	switch d := d.(type) {
	case sectionsys.WhyChooseDraft:
		p.WhyChoose = d.WhyChoose
	case sectionsys.AboutUsDraft:
		p.AboutUs = d.AboutUs
	case sectionsys.ServicesDraft:
		p.Services = d.Items
	case sectionsys.FaqDraft:
		p.Faqs = d.Items
	case sectionsys.PricingDraft:
		p.Pricing = d.TransparentPricing
	case sectionsys.HeroDraft:
		// The stored image stays; a rejected upload is not echoed back.
		p.Hero.Title = d.Title
		p.Hero.SubTitle = d.SubTitle
	}
}

func (h *Handler) saveSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pageID(r)
	if !ok {
		h.errPages.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "could not read the form", http.StatusBadRequest)
		return
	}
	key := r.PostForm.Get("key")
	free := false
	for _, k := range models.FreeSlots() {
		free = free || k == key
	}
	if !free {
		http.Error(w, "unknown meta slot", http.StatusBadRequest)
		return
	}
	value := strings.TrimSpace(r.PostForm.Get("value"))

	patch := models.MetaPatch{Meta: map[string]string{key: value}, PageType: h.pageType}
	if err := h.api.PatchMeta(r.Context(), auth.Credentials(r), id, patch); err != nil {
		if h.sessionMgr.ExpireOnUnauthorized(w, r, err) {
			return
		}
		h.errLog.Backend(r, "save meta slot", err)
		page, snap, lerr := h.load(r, id)
		if lerr != nil {
			h.loadFailed(w, r, lerr)
			return
		}
		vm := h.newEditorVM(r, id, page, snap)
		if s := vm.slot(key); s != nil {
			s.Value = value
			s.Error = backend.UserMessage(err, "Could not save the value.")
		}
		h.render(w, r, http.StatusBadGateway, vm)
		return
	}
	h.logger.Info("meta slot saved", zap.Int64("page_id", id), zap.String("key", key))
	http.Redirect(w, r, h.editorURL(id)+"?notice=updated#meta-"+key, http.StatusSeeOther)
}
