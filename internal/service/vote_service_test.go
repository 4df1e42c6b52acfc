package service

import (
	"testing"

	"Title_Vote/internal/model"
)

func TestVoteKeepsCountersInStep(t *testing.T) {
	f := newFixture(t)
	m := f.movie("Parasite")
	a := f.suggest("alice", m.ID, "Gisaengchung")
	b := f.suggest("bob", m.ID, "The Parasite")

	f.vote(subject(1), a.ID)
	f.vote(subject(2), a.ID)
	got := f.vote(subject(3), b.ID)

	if got.TotalVotes != 3 {
		t.Fatalf("returned total_votes = %d, want 3", got.TotalVotes)
	}
	f.checkTotals(m.ID)
	if s, ok := f.rankScore(MetricVotes, m.ID); !ok || s != -3 {
		t.Fatalf("votes score = %v (present %v), want -3", s, ok)
	}
}

func TestVoteOncePerMovie(t *testing.T) {
	f := newFixture(t)
	m := f.movie("Oldboy")
	a := f.suggest("alice", m.ID, "Old Boy")
	b := f.suggest("alice", m.ID, "Oldeuboi")
	other := f.movie("Mother")
	c := f.suggest("alice", other.ID, "Madeo")

	f.vote("carol", a.ID)

	_, err := f.votes.Vote(f.ctx, identity("carol"), b.ID)
	wantErr(t, err, ErrAlreadyVoted)
	_, err = f.votes.Vote(f.ctx, identity("carol"), a.ID)
	wantErr(t, err, ErrAlreadyVoted)

	// a vote on another movie is independent
	f.vote("carol", c.ID)

	v, err := f.votes.MyVote(f.ctx, identity("carol"), m.ID)
	mustNoErr(t, err, "my vote")
	if v == nil || v.SuggestionID != a.ID {
		t.Fatalf("my vote = %+v, want suggestion %d", v, a.ID)
	}

	// switching means cancel first
	_, err = f.votes.Cancel(f.ctx, identity("carol"), a.ID)
	mustNoErr(t, err, "cancel")
	f.vote("carol", b.ID)
	f.checkTotals(m.ID)
	f.checkTotals(other.ID)

	var n int64
	f.db.Model(&model.Vote{}).Where("movie_id = ?", m.ID).Count(&n)
	if n != 1 {
		t.Fatalf("vote rows on movie = %d, want 1", n)
	}
}

func TestCancelVote(t *testing.T) {
	f := newFixture(t)
	m := f.movie("Burning")
	a := f.suggest("alice", m.ID, "Beoning")

	_, err := f.votes.Cancel(f.ctx, identity("dave"), a.ID)
	wantErr(t, err, ErrVoteNotFound)

	f.vote("dave", a.ID)
	got, err := f.votes.Cancel(f.ctx, identity("dave"), a.ID)
	mustNoErr(t, err, "cancel")
	if got.TotalVotes != 0 {
		t.Fatalf("total_votes after cancel = %d, want 0", got.TotalVotes)
	}
	f.checkTotals(m.ID)

	_, err = f.votes.Cancel(f.ctx, identity("dave"), a.ID)
	wantErr(t, err, ErrVoteNotFound)

	v, err := f.votes.MyVote(f.ctx, identity("dave"), m.ID)
	mustNoErr(t, err, "my vote")
	if v != nil {
		t.Fatalf("my vote after cancel = %+v, want nil", v)
	}
}

func TestVoteRejections(t *testing.T) {
	f := newFixture(t)

	_, err := f.votes.Vote(f.ctx, nil, 1)
	wantErr(t, err, ErrUnauthenticated)

	_, err = f.votes.Vote(f.ctx, identity("erin"), 404)
	wantErr(t, err, ErrSuggestionNotFound)

	v, err := f.votes.MyVote(f.ctx, nil, 1)
	if err != nil || v != nil {
		t.Fatalf("anonymous my vote = %v, %v; want nil, nil", v, err)
	}
}

func TestVoteProjectionFailureMarksDirty(t *testing.T) {
	f := newFixture(t)
	m := f.movie("The Host")
	a := f.suggest("alice", m.ID, "Gwoemul")

	f.idx.Votes.(*memRank).failReplace = true
	f.vote("frank", a.ID)
	if !f.rank.Dirty() {
		t.Fatal("ranking not marked dirty after failed projection write")
	}
	// the database write stands
	f.checkTotals(m.ID)
	if got := f.reload(m.ID).TotalVotes; got != 1 {
		t.Fatalf("total_votes = %d, want 1", got)
	}

	f.idx.Votes.(*memRank).failReplace = false
	_, err := f.rank.Rebuild(f.ctx)
	mustNoErr(t, err, "rebuild")
	if f.rank.Dirty() {
		t.Fatal("ranking still dirty after rebuild")
	}
	if s, _ := f.rankScore(MetricVotes, m.ID); s != -1 {
		t.Fatalf("votes score after rebuild = %v, want -1", s)
	}
}
