package service

import (
	"strings"
	"testing"
	"time"

	"Title_Vote/internal/model"
)

const validReason = "offensive and unrelated title"

func TestReportValidation(t *testing.T) {
	f := newFixture(t)
	m := f.movie("Decision to Leave")
	sg := f.suggest("alice", m.ID, "Heeojil Gyeolsim")

	tests := []struct {
		name    string
		reason  string
		wantErr error
	}{
		{"too short", "spam", ErrInvalidReason},
		{"short after trim", "   nine char   ", ErrInvalidReason},
		{"too long", strings.Repeat("x", MaxReasonLength+1), ErrInvalidReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reports.Report(f.ctx, identity("bob"), sg.ID, tt.reason)
			wantErr(t, err, tt.wantErr)
		})
	}

	_, err := f.reports.Report(f.ctx, identity("bob"), 999, validReason)
	wantErr(t, err, ErrSuggestionNotFound)
	_, err = f.reports.Report(f.ctx, nil, sg.ID, validReason)
	wantErr(t, err, ErrUnauthenticated)

	rp, err := f.reports.Report(f.ctx, identity("bob"), sg.ID, "  "+validReason+"  ")
	mustNoErr(t, err, "report")
	if rp.Status != model.ReportPending || rp.Reason != validReason {
		t.Fatalf("report = %+v", rp)
	}
}

func TestDuplicateReportRegardlessOfStatus(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	m := f.movie("Joint Security Area")
	sg := f.suggest("alice", m.ID, "JSA")

	rp, err := f.reports.Report(f.ctx, identity("bob"), sg.ID, validReason)
	mustNoErr(t, err, "report")
	_, err = f.reports.Report(f.ctx, identity("bob"), sg.ID, validReason)
	wantErr(t, err, ErrDuplicateReport)

	mustNoErr(t, f.moderation.Reject(f.ctx, admin, rp.ID, "fine as is"), "reject")
	_, err = f.reports.Report(f.ctx, identity("bob"), sg.ID, validReason)
	wantErr(t, err, ErrDuplicateReport)

	reported, err := f.reports.HasReported(f.ctx, identity("bob"), sg.ID)
	mustNoErr(t, err, "has reported")
	if !reported {
		t.Fatal("has reported = false, want true")
	}
	reported, err = f.reports.HasReported(f.ctx, nil, sg.ID)
	if err != nil || reported {
		t.Fatalf("anonymous has reported = %v, %v", reported, err)
	}

	// another reporter is independent
	_, err = f.reports.Report(f.ctx, identity("carol"), sg.ID, validReason)
	mustNoErr(t, err, "second reporter")
	counts, err := f.reports.Counts(f.ctx, sg.ID)
	mustNoErr(t, err, "counts")
	if counts.Pending != 1 || counts.Rejected != 1 || counts.Total != 2 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestApproveArchivesAndCascades(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	m := f.movie("The Wailing")
	keep := f.suggest("alice", m.ID, "Goksung")
	bad := f.suggest("troll", m.ID, "Bad Title")
	f.vote("bob", bad.ID)
	f.vote("carol", bad.ID)
	f.vote("dave", keep.ID)
	_, err := f.suggestions.AddComment(f.ctx, identity("bob"), bad.ID, "lol")
	mustNoErr(t, err, "comment")

	rp, err := f.reports.Report(f.ctx, identity("erin"), bad.ID, validReason)
	mustNoErr(t, err, "report")

	_, err = f.moderation.Approve(f.ctx, identity("erin"), rp.ID, "")
	wantErr(t, err, ErrAdminOnly)

	pending, err := f.reports.Pending(f.ctx, admin)
	mustNoErr(t, err, "pending")
	if len(pending) != 1 || pending[0].Suggestion == nil || pending[0].Movie == nil || pending[0].Reporter == nil {
		t.Fatalf("pending = %+v", pending)
	}

	archived, err := f.moderation.Approve(f.ctx, admin, rp.ID, " confirmed ")
	mustNoErr(t, err, "approve")
	if archived.OriginalSuggestionID != bad.ID || archived.Votes != 2 || archived.Title != "Bad Title" ||
		archived.RemovalReason != validReason || archived.ReportID != rp.ID {
		t.Fatalf("archive row = %+v", archived)
	}
	if !archived.RemovedAt.Equal(f.now) {
		t.Fatalf("removed_at = %v, want %v", archived.RemovedAt, f.now)
	}

	var left int64
	f.db.Model(&model.TitleSuggestion{}).Where("id = ?", bad.ID).Count(&left)
	if left != 0 {
		t.Fatal("reported suggestion still present")
	}
	var votes, comments int64
	f.db.Model(&model.Vote{}).Where("suggestion_id = ?", bad.ID).Count(&votes)
	f.db.Model(&model.Comment{}).Where("suggestion_id = ?", bad.ID).Count(&comments)
	if votes != 0 || comments != 0 {
		t.Fatalf("orphans left: votes=%d comments=%d", votes, comments)
	}
	f.checkTotals(m.ID)
	if s, _ := f.rankScore(MetricVotes, m.ID); s != -1 {
		t.Fatalf("votes score = %v, want -1", s)
	}

	var stored model.Report
	f.db.First(&stored, rp.ID)
	if stored.Status != model.ReportApproved || stored.ReviewedBy == nil || stored.AdminNote != "confirmed" {
		t.Fatalf("stored report = %+v", stored)
	}

	_, err = f.moderation.Approve(f.ctx, admin, rp.ID, "")
	wantErr(t, err, ErrAlreadyProcessed)
	wantErr(t, f.moderation.Reject(f.ctx, admin, rp.ID, ""), ErrAlreadyProcessed)
	_, err = f.moderation.Approve(f.ctx, admin, 999, "")
	wantErr(t, err, ErrReportNotFound)

	pending, err = f.reports.Pending(f.ctx, admin)
	mustNoErr(t, err, "pending")
	if len(pending) != 0 {
		t.Fatalf("pending after approve = %d", len(pending))
	}

	troll := f.user("troll")
	stats, err := f.moderation.UserStats(f.ctx, admin, troll.ID)
	mustNoErr(t, err, "stats")
	if stats.RemovedCount != 1 || stats.IsBanned {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestBanExpiresAtReadTime(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	m := f.movie("A Taxi Driver")
	target := f.user("mallory")

	days := 1
	b, err := f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "spam", DurationDays: &days})
	mustNoErr(t, err, "ban")
	if b.ExpiresAt == nil || !b.ExpiresAt.Equal(f.now.Add(24*time.Hour)) {
		t.Fatalf("expires_at = %v", b.ExpiresAt)
	}
	if len(f.mails) != 1 || f.mails[0].to != "mallory@example.com" {
		t.Fatalf("mails = %+v", f.mails)
	}

	_, err = f.suggestions.Add(f.ctx, identity("mallory"), m.ID, "Taeksi Unjeonsa", "")
	wantErr(t, err, ErrUserBanned)
	st, err := f.moderation.BanStatus(f.ctx, target.ID)
	mustNoErr(t, err, "status")
	if !st.IsBanned || st.Reason != "spam" {
		t.Fatalf("status = %+v", st)
	}

	// still enforced at the exact expiry instant
	f.now = *b.ExpiresAt
	st, err = f.moderation.BanStatus(f.ctx, target.ID)
	mustNoErr(t, err, "status")
	if !st.IsBanned {
		t.Fatalf("status at expiry = %+v", st)
	}

	// nothing is written when the ban lapses
	f.now = f.now.Add(time.Hour)
	st, err = f.moderation.BanStatus(f.ctx, target.ID)
	mustNoErr(t, err, "status")
	if st.IsBanned {
		t.Fatalf("status after expiry = %+v", st)
	}
	f.suggest("mallory", m.ID, "Taeksi Unjeonsa")
}

func TestLongBan(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	m := f.movie("Burning")
	target := f.user("mallory")

	tooLong := MaxBanDays + 1
	_, err := f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "spam", DurationDays: &tooLong})
	wantErr(t, err, ErrInvalidBan)

	days := MaxBanDays
	b, err := f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "spam", DurationDays: &days})
	mustNoErr(t, err, "ban")
	if want := f.now.AddDate(0, 0, MaxBanDays); b.ExpiresAt == nil || !b.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %v, want %v", b.ExpiresAt, want)
	}
	st, err := f.moderation.BanStatus(f.ctx, target.ID)
	mustNoErr(t, err, "status")
	if !st.IsBanned {
		t.Fatalf("status = %+v", st)
	}
	_, err = f.suggestions.Add(f.ctx, identity("mallory"), m.ID, "Beoning", "")
	wantErr(t, err, ErrUserBanned)
}

func TestPermanentBanAndUnban(t *testing.T) {
	f := newFixture(t)
	admin := f.admin("root")
	m := f.movie("Castaway on the Moon")
	sg := f.suggest("alice", m.ID, "Kimssi Pyoryugi")
	target := f.user("mallory")

	_, err := f.moderation.Ban(f.ctx, identity("alice"), BanInput{UserID: target.ID, Reason: "spam"})
	wantErr(t, err, ErrAdminOnly)
	_, err = f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "  "})
	wantErr(t, err, ErrInvalidBan)
	zero := 0
	_, err = f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "spam", DurationDays: &zero})
	wantErr(t, err, ErrInvalidBan)
	_, err = f.moderation.Ban(f.ctx, admin, BanInput{UserID: 999, Reason: "spam"})
	wantErr(t, err, ErrUserNotFound)

	_, err = f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "first"})
	mustNoErr(t, err, "first ban")
	_, err = f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "second"})
	mustNoErr(t, err, "second ban")

	var active int64
	f.db.Model(&model.UserBan{}).Where("user_id = ? AND is_active = ?", target.ID, true).Count(&active)
	if active != 1 {
		t.Fatalf("active bans = %d, want 1", active)
	}

	f.now = f.now.AddDate(10, 0, 0)
	_, err = f.votes.Vote(f.ctx, identity("mallory"), sg.ID)
	wantErr(t, err, ErrUserBanned)
	_, err = f.reports.Report(f.ctx, identity("mallory"), sg.ID, validReason)
	wantErr(t, err, ErrUserBanned)

	n, err := f.moderation.Unban(f.ctx, admin, target.ID)
	mustNoErr(t, err, "unban")
	if n != 1 {
		t.Fatalf("lifted = %d, want 1", n)
	}
	f.vote("mallory", sg.ID)

	// a banned user may still cancel a vote and delete their own suggestion
	_, err = f.moderation.Ban(f.ctx, admin, BanInput{UserID: target.ID, Reason: "again"})
	mustNoErr(t, err, "ban again")
	_, err = f.votes.Cancel(f.ctx, identity("mallory"), sg.ID)
	mustNoErr(t, err, "cancel while banned")
}
