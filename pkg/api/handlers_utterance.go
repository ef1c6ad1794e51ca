package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/executor"
	"github.com/codeready-toolchain/nurseresearch/pkg/planner"
	"github.com/codeready-toolchain/nurseresearch/pkg/store"
	"github.com/codeready-toolchain/nurseresearch/pkg/synth"
)

// utteranceHandler handles POST /api/v1/projects/:project/utterances, the
// conversation interface named in §6: {utterance, turn_index} in,
// {reply_text, suggestions[], run_id?} out.
func (s *Server) utteranceHandler(c *gin.Context) {
	var req UtteranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	projectName := c.Param("project")
	_, projectStore, err := s.projects.Get(projectName)
	if err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	cc := s.conversationFor(ctx, projectName, projectStore)

	if err := cc.AddMessage(ctx, "user", req.Utterance, nil); err != nil {
		writeError(c, err)
		return
	}

	plan, err := s.planner.Plan(ctx, req.Utterance, cc)
	if errors.Is(err, planner.ErrCannotUnderstand) {
		reply := "I'm not sure what you're asking for — could you rephrase that?"
		_ = cc.AddMessage(ctx, "assistant", reply, nil)
		c.JSON(http.StatusOK, UtteranceResponse{ReplyText: reply, Suggestions: synth.Suggestions(cc.Phase())})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	ex := executor.New(s.registry, projectStore, s.audit)
	ex.SetPublisher(s.publisher)

	result, err := ex.Execute(ctx, plan, cc)
	if err != nil {
		writeError(c, err)
		return
	}

	reply := synth.Synthesize(ctx, s.llm, req.Utterance, result.Results)
	_ = cc.AddMessage(ctx, "assistant", reply, nil)

	c.JSON(http.StatusOK, UtteranceResponse{
		ReplyText:   reply,
		Suggestions: synth.Suggestions(cc.Phase()),
		RunID:       result.RunID,
	})
}

// conversationFor returns the cached Conversation Context for projectName,
// rehydrating it from st on first access this process — there is exactly
// one Context per active project (§5), shared across every utterance
// request that names it for as long as this process runs.
func (s *Server) conversationFor(ctx context.Context, projectName string, st *store.Store) *convo.Context {
	s.convoMu.Lock()
	defer s.convoMu.Unlock()

	if cc, ok := s.convos[projectName]; ok {
		return cc
	}
	cc := convo.New(projectName, projectName, st)
	_ = cc.LoadFromDB(ctx)
	s.convos[projectName] = cc
	return cc
}
